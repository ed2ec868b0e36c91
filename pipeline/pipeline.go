package pipeline

import (
	"context"
	"fmt"

	"github.com/gamerec/gamerec/core"
)

// Pipeline 把排序逻辑拆成固定顺序的 Node 链：打分 -> 过滤 -> 重排 -> 截断。
// 阶段之间严格串行：多样性统计需要完整候选集，不做投机重叠。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
