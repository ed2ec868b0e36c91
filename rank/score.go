package rank

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pipeline"
	"github.com/gamerec/gamerec/pkg/utils"
)

// ScoreNode 融合召回分与物品质量分：
//
//	final = relevance_weight * relevance + quality_weight * quality
//
// 召回分不在 [0,1] 内时先做 min-max 归一。节点同时负责补全候选
// 元数据，查不到元数据的候选被剔除并记日志。
type ScoreNode struct {
	Catalog core.CatalogStore
	Profile Profile
	Logger  zerolog.Logger
}

func (n *ScoreNode) Name() string {
	return "rank.score"
}

func (n *ScoreNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *ScoreNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	lo, hi := scoreRange(items)
	normalize := lo < 0 || hi > 1

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Meta == nil {
			meta, err := n.Catalog.GetItem(ctx, it.ID)
			if err != nil || meta == nil {
				n.Logger.Debug().Int64("item_id", it.ID).Msg("candidate without metadata dropped")
				continue
			}
			it.Meta = meta
		}

		relevance := it.Score
		if normalize {
			if hi > lo {
				relevance = (it.Score - lo) / (hi - lo)
			} else {
				relevance = 1
			}
		}

		it.RawScore = it.Score
		it.Score = n.Profile.RelevanceWeight*relevance + n.Profile.QualityWeight*it.Meta.QualityScore
		it.PutLabel("rank_profile", utils.Label{Value: n.Profile.Name, Source: "rank"})
		it.PutLabel("rank_detail", utils.Label{
			Value:  fmt.Sprintf("rel=%.4f,quality=%.4f", relevance, it.Meta.QualityScore),
			Source: "rank",
		})
		out = append(out, it)
	}
	return out, nil
}

func scoreRange(items []*core.Item) (lo, hi float64) {
	first := true
	for _, it := range items {
		if it == nil {
			continue
		}
		if first {
			lo, hi = it.Score, it.Score
			first = false
			continue
		}
		if it.Score < lo {
			lo = it.Score
		}
		if it.Score > hi {
			hi = it.Score
		}
	}
	return lo, hi
}
