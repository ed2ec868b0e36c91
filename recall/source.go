package recall

import (
	"context"

	"github.com/gamerec/gamerec/core"
)

// Source 表示一个可复用的召回源（热门 / 向量 / 内容）。
// limit 是期望候选数；实现可以少给但不应多给。
// 召回源内部消化自身故障（返回空集），不靠抛错做控制流。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error)
}
