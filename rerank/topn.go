package rerank

import (
	"context"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pipeline"
)

// TopNNode 截取前 N 个物品，放在管线末端控制返回数量。
// N <= 0 或物品数不足 N 时不截断。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
