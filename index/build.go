package index

import (
	"sort"
	"time"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pkg/vec"
)

// chooseKind 按数据规模选择索引结构；cfg.Kind 非空时强制指定。
// 阈值来自配置，属于启发式而非硬约定。
func chooseKind(n int, cfg core.IndexConfig) Kind {
	switch Kind(cfg.Kind) {
	case KindFlat, KindIVF, KindHNSW:
		return Kind(cfg.Kind)
	}
	if n <= cfg.FlatMaxItems {
		return KindFlat
	}
	if n >= cfg.GraphMinItems {
		return KindHNSW
	}
	return KindIVF
}

// buildSnapshot 从全量向量构建一个新快照。
// 维度与 cfg.Dim 不符的向量直接丢弃；行序按物品 ID 升序，保证可复现。
func buildSnapshot(version int64, raw map[int64][]float64, cfg core.IndexConfig) *Snapshot {
	ids := make([]int64, 0, len(raw))
	for id, v := range raw {
		if len(v) != cfg.Dim {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	vectors := make([][]float64, len(ids))
	rows := make(map[int64]int, len(ids))
	for row, id := range ids {
		vectors[row] = vec.Normalize(raw[id])
		rows[id] = row
	}

	snap := &Snapshot{
		Version:   version,
		Dim:       cfg.Dim,
		ItemCount: len(ids),
		BuiltAt:   time.Now(),
		ids:       ids,
		vectors:   vectors,
		rows:      rows,
	}
	snap.Kind = chooseKind(len(ids), cfg)

	switch snap.Kind {
	case KindIVF:
		snap.ivf = buildIVF(vectors, cfg)
	case KindHNSW:
		snap.graph = buildGraph(snap, cfg)
	}
	return snap
}

// buildIVF 训练倒排聚类：nlist 不超过向量数的十分之一，至少为 1。
// 质心初始化取等距行（行序已确定），迭代固定轮数，结果可复现。
func buildIVF(vectors [][]float64, cfg core.IndexConfig) *ivfIndex {
	n := len(vectors)
	nlist := cfg.NList
	if nlist > n/10 {
		nlist = n / 10
	}
	if nlist < 1 {
		nlist = 1
	}

	dim := len(vectors[0])
	centroids := make([][]float64, nlist)
	for ci := range centroids {
		centroids[ci] = append([]float64(nil), vectors[ci*n/nlist]...)
	}

	assign := make([]int, n)
	const iterations = 10
	for iter := 0; iter < iterations; iter++ {
		// 分配：就近质心，同分取更小簇号
		for row, v := range vectors {
			best, bestScore := 0, dot(v, centroids[0])
			for ci := 1; ci < nlist; ci++ {
				if sc := dot(v, centroids[ci]); sc > bestScore {
					best, bestScore = ci, sc
				}
			}
			assign[row] = best
		}

		// 更新：簇内均值后归一化；空簇保留旧质心
		sums := make([][]float64, nlist)
		counts := make([]int, nlist)
		for ci := range sums {
			sums[ci] = make([]float64, dim)
		}
		for row, v := range vectors {
			ci := assign[row]
			counts[ci]++
			for d, x := range v {
				sums[ci][d] += x
			}
		}
		for ci := range centroids {
			if counts[ci] == 0 {
				continue
			}
			centroids[ci] = vec.Normalize(sums[ci])
		}
	}

	postings := make([][]int, nlist)
	for row := range vectors {
		ci := assign[row]
		postings[ci] = append(postings[ci], row)
	}

	nprobe := cfg.NProbe
	if nprobe > nlist {
		nprobe = nlist
	}
	if nprobe < 1 {
		nprobe = 1
	}
	return &ivfIndex{centroids: centroids, postings: postings, nprobe: nprobe}
}

// buildGraph 按行序增量插入构建近邻图：每个新节点通过集束搜索找到
// 最相似的 M 个已有节点并建立双向边。
func buildGraph(snap *Snapshot, cfg core.IndexConfig) *nswGraph {
	n := len(snap.vectors)
	m := cfg.M
	if m < 2 {
		m = 2
	}
	ef := cfg.EF
	if ef < m {
		ef = m
	}

	g := &nswGraph{neighbors: make([][]int, n), ef: ef}
	snap.graph = g

	for row := 1; row < n; row++ {
		// 借助已建成的部分图检索近邻
		found := snap.searchGraph(snap.vectors[row], m)
		links := m
		if links > len(found) {
			links = len(found)
		}
		for _, h := range found[:links] {
			g.neighbors[row] = append(g.neighbors[row], h.row)
			g.neighbors[h.row] = append(g.neighbors[h.row], row)
		}
	}
	return g
}
