package recall

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pkg/utils"
)

// Content 是内容召回源：从用户近期交互物品提取类型与标签偏好，
// 在热门候选池里按重叠度打分。适合交互量少、向量还不可靠的用户。
type Content struct {
	Catalog    core.CatalogStore
	History    core.HistoryProvider
	PoolFactor int
	Logger     zerolog.Logger
}

// contentWeight 压低内容分，使其在融合时弱于向量相似度。
const contentWeight = 0.8

func (r *Content) Name() string { return "recall.content" }

func (r *Content) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	recent, err := r.History.RecentItems(ctx, rctx.UserID, 10)
	if err != nil || len(recent) == 0 {
		return nil, nil
	}

	genrePref, tagPref := r.buildPreference(ctx, recent)
	if len(genrePref) == 0 && len(tagPref) == 0 {
		return nil, nil
	}

	factor := r.PoolFactor
	if factor <= 0 {
		factor = 2
	}
	pool, err := r.Catalog.ListPopular(ctx, "", limit*factor)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeCatalogUnavailable,
			"content recall pool: "+err.Error())
	}

	type scored struct {
		meta  *core.ItemMeta
		score float64
	}
	candidates := make([]scored, 0, len(pool))
	for _, s := range pool {
		if rctx.Owns(s.ItemID) {
			continue
		}
		meta, err := r.Catalog.GetItem(ctx, s.ItemID)
		if err != nil || meta == nil {
			continue
		}
		sim := 0.6*overlapScore(meta.Genres, genrePref) + 0.4*overlapScore(meta.Tags, tagPref)
		if sim <= 0 {
			continue
		}
		candidates = append(candidates, scored{meta: meta, score: sim * contentWeight})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].meta.ItemID < candidates[j].meta.ItemID
	})

	out := make([]*core.Item, 0, limit)
	for _, c := range candidates {
		it := core.NewItem(c.meta.ItemID)
		it.Score = c.score
		it.RawScore = c.score
		it.Source = core.SourceContent
		it.Meta = c.meta
		it.PutLabel("recall_source", utils.Label{Value: core.SourceContent, Source: "recall"})
		out = append(out, it)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// buildPreference 统计近期物品的类型/标签出现频次，归一化为偏好向量。
func (r *Content) buildPreference(ctx context.Context, recent []int64) (map[string]float64, map[string]float64) {
	genres := map[string]float64{}
	tags := map[string]float64{}
	for _, id := range recent {
		meta, err := r.Catalog.GetItem(ctx, id)
		if err != nil || meta == nil {
			continue
		}
		for _, g := range meta.Genres {
			genres[g]++
		}
		for _, t := range meta.Tags {
			tags[t]++
		}
	}
	normalizePref(genres)
	normalizePref(tags)
	return genres, tags
}

func normalizePref(m map[string]float64) {
	var max float64
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return
	}
	for k := range m {
		m[k] /= max
	}
}

// overlapScore 是物品属性与偏好向量的加权 Jaccard 近似。
func overlapScore(attrs []string, pref map[string]float64) float64 {
	if len(attrs) == 0 || len(pref) == 0 {
		return 0
	}
	var hit float64
	for _, a := range attrs {
		hit += pref[a]
	}
	return hit / float64(len(attrs))
}
