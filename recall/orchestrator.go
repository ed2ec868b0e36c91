package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
)

// 召回算法名，也作为请求里 algorithm 覆写的合法取值。
const (
	AlgorithmPopularity = "popularity"
	AlgorithmContent    = "content"
	AlgorithmEmbedding  = "embedding"
	AlgorithmAuto       = "auto"
)

// Orchestrator 负责按用户交互量选算法、执行召回、热门补足。
// 请求可以显式指定算法；未知算法名不会报错，按 auto 处理。
type Orchestrator struct {
	sources map[string]Source
	cfg     core.RecallConfig
	logger  zerolog.Logger
}

func NewOrchestrator(cfg core.RecallConfig, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sources: make(map[string]Source),
		cfg:     cfg,
		logger:  logger.With().Str("component", "recall").Logger(),
	}
}

// Register 注册一路召回源，键为算法名。
func (o *Orchestrator) Register(name string, src Source) {
	o.sources[name] = src
}

// SelectAlgorithm 按交互量分档：<3 热门，3~5 内容，>5 向量。
func (o *Orchestrator) SelectAlgorithm(interactionCount int) string {
	switch {
	case interactionCount < o.cfg.MinInteractionForContent:
		return AlgorithmPopularity
	case interactionCount <= o.cfg.MinInteractionForEmbedding:
		return AlgorithmContent
	default:
		return AlgorithmEmbedding
	}
}

// Execute 跑一次召回，返回候选集和实际使用的算法名。
//
// 主路结果不足 limit/2 时用热门补足，已有候选不受影响。
// 候选永远非空（除非热门榜本身为空），召回侧故障一律降级。
func (o *Orchestrator) Execute(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, string, error) {
	limit := o.cfg.Size
	if limit <= 0 {
		limit = 500
	}

	algo := rctx.Algorithm
	if algo == "" || algo == AlgorithmAuto {
		algo = o.SelectAlgorithm(rctx.InteractionCount)
	} else if _, ok := o.sources[algo]; !ok {
		o.logger.Warn().Str("algorithm", algo).Msg("unknown recall algorithm, fall back to auto")
		algo = o.SelectAlgorithm(rctx.InteractionCount)
	}

	items := o.run(ctx, rctx, algo, limit)

	// 主路产出太薄时回退/补足热门
	if algo != AlgorithmPopularity && len(items) < limit/2 {
		o.logger.Debug().
			Str("algorithm", algo).
			Int("got", len(items)).
			Msg("primary recall thin, backfill with popularity")
		if len(items) == 0 {
			// 主路完全失效，算法归属如实标注为热门
			algo = AlgorithmPopularity
		}
		pop := o.run(ctx, rctx, AlgorithmPopularity, limit)
		items = Merge(items, pop)
		if len(items) > limit {
			items = items[:limit]
		}
	}
	return items, algo, nil
}

func (o *Orchestrator) run(ctx context.Context, rctx *core.RecommendContext, algo string, limit int) []*core.Item {
	src, ok := o.sources[algo]
	if !ok {
		return nil
	}
	items, err := src.Recall(ctx, rctx, limit)
	if err != nil {
		o.logger.Warn().Err(err).Str("algorithm", algo).Msg("recall source failed")
		return nil
	}
	return items
}
