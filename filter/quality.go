package filter

import (
	"context"

	"github.com/gamerec/gamerec/core"
)

// QualityFilter 过滤质量分低于阈值的物品。阈值为 0 时不过滤。
// 没有元数据的物品放行，交给排序节点处理。
type QualityFilter struct {
	Floor float64
}

func (f *QualityFilter) Name() string {
	return "filter.quality"
}

func (f *QualityFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Floor <= 0 || item.Meta == nil {
		return false, nil
	}
	return item.Meta.QualityScore < f.Floor, nil
}
