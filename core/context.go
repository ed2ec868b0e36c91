package core

import "github.com/gamerec/gamerec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/策略信息，贯穿 Recall 与 Ranking 透传。
type RecommendContext struct {
	UserID int64

	// Algorithm 是已解析的召回算法名（popularity / content / embedding）。
	// Serving 层在进入召回前完成 "auto" 的解析。
	Algorithm string

	// Strategy 是排序策略名，未知名称在 Profile 查找时回退 default。
	Strategy string

	// TopK 是最终返回条数。
	TopK int

	// InteractionCount 是用户交互次数，驱动算法选择与冷启动判定。
	InteractionCount int

	// Owned 是用户已拥有/已屏蔽的物品集合，业务过滤阶段剔除。
	Owned map[int64]struct{}

	// Params 请求级上下文参数（地区、价格上限等），业务规则表达式可引用。
	Params map[string]any

	// Labels 是请求级标签，用于观测与解释。
	Labels map[string]utils.Label
}

// Owns 判断用户是否已拥有某物品。
func (rctx *RecommendContext) Owns(itemID int64) bool {
	if rctx == nil || rctx.Owned == nil {
		return false
	}
	_, ok := rctx.Owned[itemID]
	return ok
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}
