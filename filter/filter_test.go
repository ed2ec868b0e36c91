package filter

import (
	"context"
	"testing"

	"github.com/gamerec/gamerec/core"
)

func TestOwnedFilter(t *testing.T) {
	f := &OwnedFilter{}
	rctx := &core.RecommendContext{Owned: map[int64]struct{}{7: {}}}

	owned, _ := f.ShouldFilter(context.Background(), rctx, core.NewItem(7))
	if !owned {
		t.Error("已拥有物品应被过滤")
	}
	fresh, _ := f.ShouldFilter(context.Background(), rctx, core.NewItem(8))
	if fresh {
		t.Error("未拥有物品不应被过滤")
	}
}

func TestQualityFilter(t *testing.T) {
	f := &QualityFilter{Floor: 0.6}

	low := core.NewItem(1)
	low.Meta = &core.ItemMeta{QualityScore: 0.3}
	high := core.NewItem(2)
	high.Meta = &core.ItemMeta{QualityScore: 0.8}
	noMeta := core.NewItem(3)

	if ok, _ := f.ShouldFilter(context.Background(), nil, low); !ok {
		t.Error("低质量物品应被过滤")
	}
	if ok, _ := f.ShouldFilter(context.Background(), nil, high); ok {
		t.Error("高质量物品不应被过滤")
	}
	if ok, _ := f.ShouldFilter(context.Background(), nil, noMeta); ok {
		t.Error("无元数据物品应放行")
	}
}

func TestRuleFilterCEL(t *testing.T) {
	f, err := NewRuleFilter([]string{
		`item.price > 200.0`,
		`"horror" in item.genres && user.interaction_count < 3`,
	})
	if err != nil {
		t.Fatalf("规则编译失败: %v", err)
	}

	rctx := &core.RecommendContext{UserID: 1, InteractionCount: 0}

	expensive := core.NewItem(1)
	expensive.Meta = &core.ItemMeta{Price: 300, Genres: []string{"rpg"}}
	if ok, _ := f.ShouldFilter(context.Background(), rctx, expensive); !ok {
		t.Error("高价物品应命中价格规则")
	}

	horror := core.NewItem(2)
	horror.Meta = &core.ItemMeta{Price: 10, Genres: []string{"horror"}}
	if ok, _ := f.ShouldFilter(context.Background(), rctx, horror); !ok {
		t.Error("冷启动用户的恐怖游戏应命中规则")
	}

	normal := core.NewItem(3)
	normal.Meta = &core.ItemMeta{Price: 50, Genres: []string{"rpg"}}
	if ok, _ := f.ShouldFilter(context.Background(), rctx, normal); ok {
		t.Error("正常物品不应命中任何规则")
	}
}

func TestRuleFilterInvalidExpression(t *testing.T) {
	if _, err := NewRuleFilter([]string{`item.price >`}); err == nil {
		t.Error("非法表达式应在构建时报错")
	}
}

func TestFilterNodeComposesAndLabels(t *testing.T) {
	node := &FilterNode{Filters: []Filter{&OwnedFilter{}, &QualityFilter{Floor: 0.5}}}
	rctx := &core.RecommendContext{Owned: map[int64]struct{}{1: {}}}

	owned := core.NewItem(1)
	lowQuality := core.NewItem(2)
	lowQuality.Meta = &core.ItemMeta{QualityScore: 0.2}
	keep := core.NewItem(3)
	keep.Meta = &core.ItemMeta{QualityScore: 0.9}

	out, err := node.Process(context.Background(), rctx, []*core.Item{owned, lowQuality, keep})
	if err != nil {
		t.Fatalf("过滤失败: %v", err)
	}
	if len(out) != 1 || out[0].ID != 3 {
		t.Fatalf("期望仅保留物品 3: %+v", out)
	}
	if lbl, ok := lowQuality.Labels["filtered"]; !ok || lbl.Source != "filter.quality" {
		t.Errorf("被过滤物品应带过滤原因标签: %+v", lowQuality.Labels)
	}
}
