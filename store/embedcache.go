package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gamerec/gamerec/core"
)

// CachedEmbeddingStore 是 EmbeddingStore 的 LRU 装饰器。
// 物品向量几乎只增不改，缓存命中即省一次外部存储往返；
// 用户向量时效性强，不缓存。AllItemVectors 是重建专用的全量读，
// 直接穿透。
type CachedEmbeddingStore struct {
	inner core.EmbeddingStore
	items *lru.Cache[int64, []float64]
}

func NewCachedEmbeddingStore(inner core.EmbeddingStore, size int) (*CachedEmbeddingStore, error) {
	if size <= 0 {
		size = 4096
	}
	cache, err := lru.New[int64, []float64](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbeddingStore{inner: inner, items: cache}, nil
}

var _ core.EmbeddingStore = (*CachedEmbeddingStore)(nil)

func (s *CachedEmbeddingStore) UserVector(ctx context.Context, userID int64) ([]float64, error) {
	return s.inner.UserVector(ctx, userID)
}

func (s *CachedEmbeddingStore) ItemVector(ctx context.Context, itemID int64) ([]float64, error) {
	if vec, ok := s.items.Get(itemID); ok {
		return vec, nil
	}
	vec, err := s.inner.ItemVector(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.items.Add(itemID, vec)
	return vec, nil
}

func (s *CachedEmbeddingStore) ItemVectorsBatch(ctx context.Context, ids []int64) (map[int64][]float64, error) {
	out := make(map[int64][]float64, len(ids))
	missing := make([]int64, 0, len(ids))
	for _, id := range ids {
		if vec, ok := s.items.Get(id); ok {
			out[id] = vec
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		fetched, err := s.inner.ItemVectorsBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, vec := range fetched {
			s.items.Add(id, vec)
			out[id] = vec
		}
	}
	return out, nil
}

func (s *CachedEmbeddingStore) AllItemVectors(ctx context.Context) (map[int64][]float64, error) {
	return s.inner.AllItemVectors(ctx)
}
