// Package dsl 基于 CEL (Common Expression Language) 实现业务规则表达式，
// 供排序链路的硬性业务过滤使用。
//
// 表达式可引用两个变量：
//   - item: 物品元数据，如 item.price、item.genres、item.developer
//   - user: 请求上下文参数，如 user.region、user.max_price
//
// 示例（规则命中表示该物品应被过滤）：
//   - `item.price > user.max_price`
//   - `"cn" in item.restricted_regions && user.region == "cn"`
//   - `item.quality_score < 0.2`
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getEnv 获取全局 CEL 环境（线程安全，可复用）。
func getEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("user", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译后的业务规则。编译只发生一次，Matches 可并发调用。
type Rule struct {
	expr string
	prg  cel.Program
}

// NewRule 编译一条规则表达式。
func NewRule(expr string) (*Rule, error) {
	env, err := getEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}

	return &Rule{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式（用于日志/解释）。
func (r *Rule) Expr() string { return r.expr }

// Matches 对输入求值，返回布尔结果。
// 取不到字段等求值错误视为不命中并返回 error，由调用方决定是否忽略。
func (r *Rule) Matches(item map[string]any, user map[string]any) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{
		"item": item,
		"user": user,
	})
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", r.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", r.expr, out.Value())
	}
	return result, nil
}
