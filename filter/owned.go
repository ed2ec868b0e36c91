package filter

import (
	"context"

	"github.com/gamerec/gamerec/core"
)

// OwnedFilter 过滤用户已拥有的物品。召回侧已做过一次剔除，
// 这里兜底覆盖缓存候选等绕过召回的路径。
type OwnedFilter struct{}

func (f *OwnedFilter) Name() string {
	return "filter.owned"
}

func (f *OwnedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx.Owns(item.ID), nil
}
