package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pkg/utils"
)

// Popularity 是热门召回源：返回预计算热门榜的 TopN，剔除用户已拥有的物品。
// 冷启动用户的主召回，也是其他召回源的安全网；相同热门快照下结果确定。
type Popularity struct {
	Catalog core.CatalogStore

	// Genre 非空时走类型分榜（recall_by_genre 场景）
	Genre string

	Logger zerolog.Logger
}

func (r *Popularity) Name() string { return "recall.popularity" }

func (r *Popularity) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if r.Catalog == nil || limit <= 0 {
		return nil, nil
	}

	// 多取一倍，给已拥有剔除留余量
	scored, err := r.Catalog.ListPopular(ctx, r.Genre, limit*2)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeCatalogUnavailable,
			"popularity recall: "+err.Error())
	}

	out := make([]*core.Item, 0, limit)
	for _, s := range scored {
		if rctx.Owns(s.ItemID) {
			continue
		}
		it := core.NewItem(s.ItemID)
		it.Score = s.Score
		it.RawScore = s.Score
		it.Source = core.SourcePopularity
		it.PutLabel("recall_source", utils.Label{Value: core.SourcePopularity, Source: "recall"})
		out = append(out, it)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
