package pipeline

import (
	"context"

	"github.com/gamerec/gamerec/core"
)

// Kind 用于标记 Node 所处阶段，方便观测与打点。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：生成候选集
	KindRank   Kind = "rank"   // 打分阶段：计算综合分
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合业务约束的候选
	KindReRank Kind = "rerank" // 重排阶段：多样性打散与截断
)

// Node 是排序链路的最小可组合单元，统一采用
// “输入 items -> 输出 items”的形态：打分改写分数、过滤只做剔除、重排只调整顺序。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
