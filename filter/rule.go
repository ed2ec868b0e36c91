package filter

import (
	"context"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pkg/dsl"
)

// RuleFilter 按 CEL 业务规则过滤，规则命中即过滤。
// 规则可引用 item 与 user 两个变量，例如：
//
//	item.price > 200.0
//	"horror" in item.genres && user.interaction_count < 3
type RuleFilter struct {
	Rules []*dsl.Rule
}

// NewRuleFilter 编译规则表达式，任一表达式非法即报错。
func NewRuleFilter(exprs []string) (*RuleFilter, error) {
	rules := make([]*dsl.Rule, 0, len(exprs))
	for _, expr := range exprs {
		r, err := dsl.NewRule(expr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return &RuleFilter{Rules: rules}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if len(f.Rules) == 0 {
		return false, nil
	}

	itemVars := map[string]any{
		"id":    item.ID,
		"score": item.Score,
	}
	if item.Meta != nil {
		itemVars["title"] = item.Meta.Title
		itemVars["genres"] = item.Meta.Genres
		itemVars["tags"] = item.Meta.Tags
		itemVars["developer"] = item.Meta.Developer
		itemVars["publisher"] = item.Meta.Publisher
		itemVars["price"] = item.Meta.Price
		itemVars["quality_score"] = item.Meta.QualityScore
	}
	userVars := map[string]any{
		"id":                rctx.UserID,
		"interaction_count": rctx.InteractionCount,
	}

	for _, r := range f.Rules {
		ok, err := r.Matches(itemVars, userVars)
		if err != nil {
			// 规则求值失败不拦截物品
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
