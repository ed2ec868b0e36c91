package recall

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gamerec/gamerec/core"
)

// Fanout 并发执行多路召回并合并去重。
// 同一物品被多路命中时保留最高分及其来源。
// 单路故障只丢弃该路结果，不中断其他召回源。
type Fanout struct {
	Sources []Source
	Logger  zerolog.Logger
}

func (f *Fanout) Name() string { return "recall.fanout" }

func (f *Fanout) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if len(f.Sources) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	results := make([][]*core.Item, len(f.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range f.Sources {
		i, src := i, src
		g.Go(func() error {
			items, err := src.Recall(gctx, rctx, limit)
			if err != nil {
				// 故障路贡献空结果，其余路照常合并
				f.Logger.Warn().Err(err).Str("source", src.Name()).Msg("fanout source failed, dropped")
				return nil
			}
			mu.Lock()
			results[i] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return Merge(results...), nil
}

// Merge 按最高分去重合并多路结果，分数降序、同分小 ID 在前。
func Merge(lists ...[]*core.Item) []*core.Item {
	best := make(map[int64]*core.Item)
	for _, list := range lists {
		for _, it := range list {
			if it == nil {
				continue
			}
			cur, ok := best[it.ID]
			if !ok || it.Score > cur.Score {
				best[it.ID] = it
			}
		}
	}
	out := make([]*core.Item, 0, len(best))
	for _, it := range best {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}
