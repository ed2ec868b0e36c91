package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/filter"
	"github.com/gamerec/gamerec/pipeline"
	"github.com/gamerec/gamerec/pkg/conv"
	"github.com/gamerec/gamerec/rank"
	"github.com/gamerec/gamerec/rerank"
)

// Deps 是 Node 构建器需要的外部协作方。
type Deps struct {
	Catalog core.CatalogStore
	Logger  zerolog.Logger
}

// DefaultFactory 返回注册了所有内置排序 Node 的工厂，
// 供 YAML 声明式链路（pipeline.LoadFromYAML + BuildPipeline）使用。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("rank.score", func(cfg map[string]any) (pipeline.Node, error) {
		profile := rank.ProfileByName(conv.ConfigGet[string](cfg, "profile", rank.DefaultProfileName))
		return &rank.ScoreNode{Catalog: deps.Catalog, Profile: profile, Logger: deps.Logger}, nil
	})

	factory.Register("filter.business", func(cfg map[string]any) (pipeline.Node, error) {
		filters := []filter.Filter{&filter.OwnedFilter{}}
		if floor, ok := conv.ToFloat64(cfg["quality_floor"]); ok && floor > 0 {
			filters = append(filters, &filter.QualityFilter{Floor: floor})
		}
		if exprs := conv.ConfigGetStrings(cfg, "rules"); len(exprs) > 0 {
			rf, err := filter.NewRuleFilter(exprs)
			if err != nil {
				return nil, fmt.Errorf("compile rules: %w", err)
			}
			filters = append(filters, rf)
		}
		return &filter.FilterNode{Filters: filters}, nil
	})

	factory.Register("rerank.diversity", func(cfg map[string]any) (pipeline.Node, error) {
		weight, _ := conv.ToFloat64(cfg["weight"])
		return &rerank.Diversity{
			Weight:          weight,
			MaxPerGenre:     conv.ConfigGetInt(cfg, "max_per_genre", 0),
			MaxPerDeveloper: conv.ConfigGetInt(cfg, "max_per_developer", 0),
		}, nil
	})

	factory.Register("rerank.topn", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
	})

	return factory
}
