package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
)

func TestFanoutMergesConcurrentSources(t *testing.T) {
	f := &Fanout{Sources: []Source{
		&stubSource{name: "a", items: makeItems(core.SourcePopularity, 0.5, 1, 2)},
		&stubSource{name: "b", items: makeItems(core.SourceContent, 0.8, 2, 3)},
	}}

	items, err := f.Recall(context.Background(), &core.RecommendContext{}, 10)
	if err != nil {
		t.Fatalf("并发召回失败: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("期望去重后 3 条，实际 %d", len(items))
	}
	for _, it := range items {
		if it.ID == 2 && it.Source != core.SourceContent {
			t.Fatalf("重复物品应保留高分来源: %s", it.Source)
		}
	}
}

func TestFanoutSurvivesSingleSourceFailure(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&stubSource{name: "a", items: makeItems(core.SourcePopularity, 0.5, 1, 2, 3)},
			&stubSource{name: "b", err: errors.New("catalog down")},
		},
		Logger: zerolog.Nop(),
	}

	items, err := f.Recall(context.Background(), &core.RecommendContext{}, 10)
	if err != nil {
		t.Fatalf("单路故障不应中断整体召回: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("健康路的结果应保留，期望 3 条，实际 %d", len(items))
	}
}
