package rank

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/filter"
	"github.com/gamerec/gamerec/pipeline"
	"github.com/gamerec/gamerec/rerank"
)

// Ranker 按请求策略组装并执行排序管线：
// 打分 -> 过滤 -> 多样性重排 -> TopN 截断。
// 阶段顺序固定，策略只改变各阶段参数。
type Ranker struct {
	Catalog core.CatalogStore
	Rules   *filter.RuleFilter
	Logger  zerolog.Logger
}

func NewRanker(catalog core.CatalogStore, rules *filter.RuleFilter, logger zerolog.Logger) *Ranker {
	return &Ranker{
		Catalog: catalog,
		Rules:   rules,
		Logger:  logger.With().Str("component", "rank").Logger(),
	}
}

// Rank 执行排序，返回最多 topK 个物品。
// 未知策略名回退 default，不报错。
func (r *Ranker) Rank(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
	topK int,
) ([]*core.Item, error) {
	profile := ProfileByName(rctx.Strategy)
	if rctx.Strategy != "" && profile.Name != rctx.Strategy {
		r.Logger.Warn().Str("strategy", rctx.Strategy).Msg("unknown ranking strategy, fall back to default")
	}

	p := r.build(profile, topK)
	return p.Run(ctx, rctx, items)
}

func (r *Ranker) build(profile Profile, topK int) *pipeline.Pipeline {
	filters := []filter.Filter{
		&filter.OwnedFilter{},
		&filter.QualityFilter{Floor: profile.QualityFloor},
	}
	if r.Rules != nil {
		filters = append(filters, r.Rules)
	}
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&ScoreNode{Catalog: r.Catalog, Profile: profile, Logger: r.Logger},
			&filter.FilterNode{Filters: filters},
			&rerank.Diversity{
				Weight:          profile.DiversityWeight,
				MaxPerGenre:     profile.MaxPerGenre,
				MaxPerDeveloper: profile.MaxPerDeveloper,
			},
			&rerank.TopNNode{N: topK},
		},
	}
}
