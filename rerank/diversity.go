package rerank

import (
	"context"
	"sort"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pipeline"
	"github.com/gamerec/gamerec/pkg/utils"
)

// Diversity 是贪心多样性重排节点。每轮从剩余候选里选出
// 惩罚后分数最高的一个：
//
//	adjusted = score * (1 - weight * overlap_ratio)
//
// overlap_ratio 是候选类型与已选集合类型的重叠占比。
// 同时施加硬约束：同主类型、同开发商在结果里的数量不超过上限，
// 除非剩余候选全部触限。惩罚同分时按原始分、再按小 ID 定序。
type Diversity struct {
	// Weight 多样性衰减强度，0 表示只做硬约束
	Weight float64

	// MaxPerGenre / MaxPerDeveloper 为 0 表示不限制
	MaxPerGenre     int
	MaxPerDeveloper int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) <= 1 {
		return items, nil
	}

	remaining := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			remaining = append(remaining, it)
		}
	}
	// 基线顺序：分数降序，同分小 ID 在前
	sort.SliceStable(remaining, func(i, j int) bool {
		if remaining[i].Score != remaining[j].Score {
			return remaining[i].Score > remaining[j].Score
		}
		return remaining[i].ID < remaining[j].ID
	})

	out := make([]*core.Item, 0, len(remaining))
	seenGenres := map[string]int{}
	seenDevs := map[string]int{}

	for len(remaining) > 0 {
		idx := n.pick(remaining, seenGenres, seenDevs, false)
		if idx < 0 {
			// 全部触限，放宽硬约束继续选
			idx = n.pick(remaining, seenGenres, seenDevs, true)
		}
		chosen := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		if chosen.Meta != nil {
			if g := chosen.Meta.DominantGenre(); g != "" {
				seenGenres[g]++
			}
			for _, g := range chosen.Meta.Genres {
				if _, ok := seenGenres[g]; !ok {
					seenGenres[g] = 0
				}
			}
			if chosen.Meta.Developer != "" {
				seenDevs[chosen.Meta.Developer]++
			}
		}
		chosen.PutLabel("rerank", utils.Label{Value: "diversity", Source: "rerank"})
		out = append(out, chosen)
	}
	return out, nil
}

// pick 返回本轮最优候选的下标；relaxed 为 false 时跳过触限候选，
// 全部触限则返回 -1。
func (n *Diversity) pick(remaining []*core.Item, genres map[string]int, devs map[string]int, relaxed bool) int {
	best := -1
	var bestAdj float64
	for i, it := range remaining {
		if !relaxed && n.capped(it, genres, devs) {
			continue
		}
		adj := it.Score * (1 - n.Weight*overlapRatio(it, genres))
		if best < 0 || adj > bestAdj ||
			(adj == bestAdj && betterTie(it, remaining[best])) {
			best, bestAdj = i, adj
		}
	}
	return best
}

func (n *Diversity) capped(it *core.Item, genres map[string]int, devs map[string]int) bool {
	if it.Meta == nil {
		return false
	}
	if n.MaxPerGenre > 0 {
		if g := it.Meta.DominantGenre(); g != "" && genres[g] >= n.MaxPerGenre {
			return true
		}
	}
	if n.MaxPerDeveloper > 0 {
		if d := it.Meta.Developer; d != "" && devs[d] >= n.MaxPerDeveloper {
			return true
		}
	}
	return false
}

// overlapRatio 是候选类型落在已选类型集合里的比例。
func overlapRatio(it *core.Item, genres map[string]int) float64 {
	if it.Meta == nil || len(it.Meta.Genres) == 0 || len(genres) == 0 {
		return 0
	}
	overlap := 0
	for _, g := range it.Meta.Genres {
		if _, ok := genres[g]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(it.Meta.Genres))
}

func betterTie(a, b *core.Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}
