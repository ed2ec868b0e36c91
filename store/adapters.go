package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gamerec/gamerec/core"
)

// 约定的键布局：
//
//	emb:user / emb:item        hash，field 为 ID，value 为 JSON 数组向量
//	popular:games              全局热门 zset
//	popular:genre:{g}          类型分榜 zset
//	meta:games                 hash，field 为 ID，value 为 JSON 元数据
//	user:{id}:owned            zset，member 为物品 ID
//	user:{id}:recent           zset，score 为交互时间戳
const (
	keyUserEmbeddings = "emb:user"
	keyItemEmbeddings = "emb:item"
	keyPopularGlobal  = "popular:games"
	keyCatalogMeta    = "meta:games"
)

func keyPopularGenre(genre string) string { return "popular:genre:" + genre }
func keyUserOwned(userID int64) string    { return fmt.Sprintf("user:%d:owned", userID) }
func keyUserRecent(userID int64) string   { return fmt.Sprintf("user:%d:recent", userID) }

// KVEmbeddingStore 基于 KeyValueStore 的向量存储实现。
type KVEmbeddingStore struct {
	KV core.KeyValueStore
}

var _ core.EmbeddingStore = (*KVEmbeddingStore)(nil)

func (s *KVEmbeddingStore) UserVector(ctx context.Context, userID int64) ([]float64, error) {
	return s.vector(ctx, keyUserEmbeddings, userID)
}

func (s *KVEmbeddingStore) ItemVector(ctx context.Context, itemID int64) ([]float64, error) {
	return s.vector(ctx, keyItemEmbeddings, itemID)
}

func (s *KVEmbeddingStore) vector(ctx context.Context, key string, id int64) ([]float64, error) {
	raw, err := s.KV.HGet(ctx, key, strconv.FormatInt(id, 10))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrEmbeddingUnavailable
		}
		return nil, err
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, core.ErrEmbeddingUnavailable
	}
	return vec, nil
}

func (s *KVEmbeddingStore) ItemVectorsBatch(ctx context.Context, ids []int64) (map[int64][]float64, error) {
	out := make(map[int64][]float64, len(ids))
	for _, id := range ids {
		vec, err := s.ItemVector(ctx, id)
		if err != nil {
			continue
		}
		out[id] = vec
	}
	return out, nil
}

func (s *KVEmbeddingStore) AllItemVectors(ctx context.Context) (map[int64][]float64, error) {
	raw, err := s.KV.HGetAll(ctx, keyItemEmbeddings)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]float64, len(raw))
	for field, val := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		var vec []float64
		if err := json.Unmarshal(val, &vec); err != nil {
			continue
		}
		out[id] = vec
	}
	return out, nil
}

// KVCatalogStore 基于 KeyValueStore 的商品目录实现。
type KVCatalogStore struct {
	KV core.KeyValueStore
}

var _ core.CatalogStore = (*KVCatalogStore)(nil)

func (s *KVCatalogStore) GetItem(ctx context.Context, itemID int64) (*core.ItemMeta, error) {
	raw, err := s.KV.HGet(ctx, keyCatalogMeta, strconv.FormatInt(itemID, 10))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrItemNotFound
		}
		return nil, err
	}
	var meta core.ItemMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, core.ErrItemNotFound
	}
	return &meta, nil
}

func (s *KVCatalogStore) ListPopular(ctx context.Context, genre string, limit int) ([]core.ScoredID, error) {
	if limit <= 0 {
		return nil, nil
	}
	key := keyPopularGlobal
	if genre != "" {
		key = keyPopularGenre(genre)
	}
	members, scores, err := s.KV.ZRangeWithScores(ctx, key, 0, int64(limit)-1)
	if err != nil {
		return nil, err
	}
	out := make([]core.ScoredID, 0, len(members))
	for i, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, core.ScoredID{ItemID: id, Score: scores[i]})
	}
	return out, nil
}

// KVHistoryProvider 基于 KeyValueStore 的交互历史实现。
type KVHistoryProvider struct {
	KV core.KeyValueStore
}

var _ core.HistoryProvider = (*KVHistoryProvider)(nil)

func (s *KVHistoryProvider) InteractionCount(ctx context.Context, userID int64) (int, error) {
	members, err := s.KV.ZRange(ctx, keyUserRecent(userID), 0, -1)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

func (s *KVHistoryProvider) OwnedItems(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	members, err := s.KV.ZRange(ctx, keyUserOwned(userID), 0, -1)
	if err != nil {
		return nil, err
	}
	owned := make(map[int64]struct{}, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		owned[id] = struct{}{}
	}
	return owned, nil
}

func (s *KVHistoryProvider) RecentItems(ctx context.Context, userID int64, limit int) ([]int64, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	// score 为交互时间戳，降序即新→旧
	members, err := s.KV.ZRange(ctx, keyUserRecent(userID), 0, stop)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// 写入辅助，供离线任务与测试造数使用。

func SeedItemVector(ctx context.Context, kv core.KeyValueStore, itemID int64, vec []float64) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return kv.HSet(ctx, keyItemEmbeddings, strconv.FormatInt(itemID, 10), raw)
}

func SeedUserVector(ctx context.Context, kv core.KeyValueStore, userID int64, vec []float64) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return kv.HSet(ctx, keyUserEmbeddings, strconv.FormatInt(userID, 10), raw)
}

// SeedItemMeta 写入元数据，同时维护全局与类型热门榜。
func SeedItemMeta(ctx context.Context, kv core.KeyValueStore, meta *core.ItemMeta, popularity float64) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	field := strconv.FormatInt(meta.ItemID, 10)
	if err := kv.HSet(ctx, keyCatalogMeta, field, raw); err != nil {
		return err
	}
	if err := kv.ZAdd(ctx, keyPopularGlobal, popularity, field); err != nil {
		return err
	}
	for _, g := range meta.Genres {
		if err := kv.ZAdd(ctx, keyPopularGenre(g), popularity, field); err != nil {
			return err
		}
	}
	return nil
}

func SeedInteraction(ctx context.Context, kv core.KeyValueStore, userID, itemID int64, ts float64, owned bool) error {
	field := strconv.FormatInt(itemID, 10)
	if err := kv.ZAdd(ctx, keyUserRecent(userID), ts, field); err != nil {
		return err
	}
	if owned {
		return kv.ZAdd(ctx, keyUserOwned(userID), ts, field)
	}
	return nil
}
