// Package index 维护物品向量的近邻检索索引：不可变快照 + 原子替换。
//
// 快照按数据规模选择三种结构之一：
//   - flat: 精确暴力检索，小规模语料
//   - ivf:  k-means 倒排聚类，查询仅探查最近的 nprobe 个簇
//   - hnsw: 近邻图 + 集束搜索，超大规模或显式配置时使用
//
// 所有向量在构建时 L2 归一化，内积即余弦相似度。
package index

import (
	"sort"
	"time"
)

// Kind 是索引结构类型。
type Kind string

const (
	KindFlat Kind = "flat"
	KindIVF  Kind = "ivf"
	KindHNSW Kind = "hnsw"
)

// Snapshot 是一个不可变的索引实例：构建完成后只读，读者要么看到
// 整个旧快照、要么看到整个新快照，不存在中间态。
type Snapshot struct {
	Version   int64
	Kind      Kind
	Dim       int
	ItemCount int
	BuiltAt   time.Time

	// ids 按物品 ID 升序排列，行号与 vectors 对应；
	// 升序行序保证了相同查询的结果完全可复现。
	ids     []int64
	vectors [][]float64 // 已归一化
	rows    map[int64]int

	ivf   *ivfIndex
	graph *nswGraph
}

// ivfIndex 是倒排聚类结构：质心 + 各簇成员行号。
type ivfIndex struct {
	centroids [][]float64
	postings  [][]int
	nprobe    int
}

// nswGraph 是单层近邻图：每行的邻居行号，按构建顺序插入。
type nswGraph struct {
	neighbors [][]int
	ef        int
}

// Contains 判断物品是否在本快照中。
func (s *Snapshot) Contains(itemID int64) bool {
	_, ok := s.rows[itemID]
	return ok
}

// hit 是检索中间结果。
type hit struct {
	row   int
	score float64
}

// Search 在快照内检索与 query（已归一化）最相似的 k 个物品。
// 返回按相似度降序排列，同分按物品 ID 升序。
func (s *Snapshot) Search(query []float64, k int) []hit {
	if k <= 0 || s.ItemCount == 0 {
		return nil
	}

	var candidates []hit
	switch s.Kind {
	case KindIVF:
		candidates = s.searchIVF(query, k)
	case KindHNSW:
		candidates = s.searchGraph(query, k)
	default:
		candidates = s.searchFlat(query)
	}

	s.sortHits(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// sortHits 按相似度降序、物品 ID 升序排序（确定性平分裁决）。
func (s *Snapshot) sortHits(hs []hit) {
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].score != hs[j].score {
			return hs[i].score > hs[j].score
		}
		return s.ids[hs[i].row] < s.ids[hs[j].row]
	})
}

func (s *Snapshot) searchFlat(query []float64) []hit {
	out := make([]hit, 0, len(s.vectors))
	for row, v := range s.vectors {
		out = append(out, hit{row: row, score: dot(query, v)})
	}
	return out
}

func (s *Snapshot) searchIVF(query []float64, k int) []hit {
	idx := s.ivf

	// 1. 选出最近的 nprobe 个质心
	type centroidHit struct {
		ci    int
		score float64
	}
	chs := make([]centroidHit, 0, len(idx.centroids))
	for ci, c := range idx.centroids {
		chs = append(chs, centroidHit{ci: ci, score: dot(query, c)})
	}
	sort.Slice(chs, func(i, j int) bool {
		if chs[i].score != chs[j].score {
			return chs[i].score > chs[j].score
		}
		return chs[i].ci < chs[j].ci
	})
	nprobe := idx.nprobe
	if nprobe > len(chs) {
		nprobe = len(chs)
	}

	// 2. 扫描被探查簇的全部成员
	var out []hit
	for _, ch := range chs[:nprobe] {
		for _, row := range idx.postings[ch.ci] {
			out = append(out, hit{row: row, score: dot(query, s.vectors[row])})
		}
	}

	// 兜底：探查簇为空时退化为全量扫描，避免漏召回
	if len(out) < k && len(out) < s.ItemCount {
		return s.searchFlat(query)
	}
	return out
}

// searchGraph 从固定入口做集束搜索，beam 宽度为 ef。
func (s *Snapshot) searchGraph(query []float64, k int) []hit {
	g := s.graph
	ef := g.ef
	if ef < k {
		ef = k
	}

	visited := make(map[int]bool, ef*4)
	entry := 0
	beam := []hit{{row: entry, score: dot(query, s.vectors[entry])}}
	visited[entry] = true

	improved := true
	for improved {
		improved = false
		// 扩展当前 beam 中所有节点的邻居
		var frontier []hit
		for _, h := range beam {
			for _, nb := range g.neighbors[h.row] {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				frontier = append(frontier, hit{row: nb, score: dot(query, s.vectors[nb])})
			}
		}
		if len(frontier) == 0 {
			break
		}

		merged := append(beam, frontier...)
		s.sortHits(merged)
		if len(merged) > ef {
			merged = merged[:ef]
		}
		// beam 尾部分数提升则继续扩展
		if merged[len(merged)-1].score > beam[len(beam)-1].score || len(merged) > len(beam) {
			improved = true
		}
		beam = merged
	}
	return beam
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
