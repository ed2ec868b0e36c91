package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gamerec/gamerec/core"
)

// recordNode 记录执行顺序，可选地注入错误。
type recordNode struct {
	name string
	kind Kind
	log  *[]string
	err  error
}

func (n *recordNode) Name() string { return n.name }
func (n *recordNode) Kind() Kind   { return n.kind }

func (n *recordNode) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	*n.log = append(*n.log, n.name)
	if n.err != nil {
		return nil, n.err
	}
	return items, nil
}

func TestPipelineRunsNodesInOrder(t *testing.T) {
	var log []string
	p := &Pipeline{Nodes: []Node{
		&recordNode{name: "rank.score", kind: KindRank, log: &log},
		&recordNode{name: "filter.node", kind: KindFilter, log: &log},
		&recordNode{name: "rerank.diversity", kind: KindReRank, log: &log},
	}}

	items := []*core.Item{core.NewItem(1)}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("候选数量错误: %d", len(out))
	}
	want := "rank.score,filter.node,rerank.diversity"
	if got := strings.Join(log, ","); got != want {
		t.Fatalf("执行顺序错误: %s", got)
	}
}

func TestPipelineWrapsNodeError(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&recordNode{name: "rank.score", kind: KindRank, log: &log},
		&recordNode{name: "filter.node", kind: KindFilter, log: &log, err: boom},
		&recordNode{name: "rerank.diversity", kind: KindReRank, log: &log},
	}}

	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("错误应向上包装透传: %v", err)
	}
	if !strings.Contains(err.Error(), "filter.node") {
		t.Fatalf("错误应带出错 Node 名: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("出错后不应继续执行后续 Node: %v", log)
	}
}

func TestNodeFactoryBuild(t *testing.T) {
	var log []string
	f := NewNodeFactory()
	f.Register("test.node", func(cfg map[string]any) (Node, error) {
		return &recordNode{name: "test.node", kind: KindRank, log: &log}, nil
	})

	n, err := f.Build("test.node", nil)
	if err != nil || n.Name() != "test.node" {
		t.Fatalf("构建失败: %v", err)
	}
	if _, err := f.Build("unknown", nil); err == nil {
		t.Fatal("未注册类型应报错")
	}
}
