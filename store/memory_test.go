package store

import (
	"context"
	"testing"

	"github.com/gamerec/gamerec/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	if _, err := m.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("不存在的 key 应返回 NOT_FOUND，实际 %v", err)
	}

	if err := m.Set(ctx, "k", []byte("v"), 3600); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("读取失败: %s, %v", got, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Fatal("删除后应返回 NOT_FOUND")
	}
}

func TestMemoryStoreZSetOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	_ = m.ZAdd(ctx, "pop", 50, "b")
	_ = m.ZAdd(ctx, "pop", 100, "a")
	_ = m.ZAdd(ctx, "pop", 75, "c")

	members, scores, err := m.ZRangeWithScores(ctx, "pop", 0, -1)
	if err != nil {
		t.Fatalf("ZRangeWithScores 失败: %v", err)
	}
	wantMembers := []string{"a", "c", "b"}
	wantScores := []float64{100, 75, 50}
	for i := range wantMembers {
		if members[i] != wantMembers[i] || scores[i] != wantScores[i] {
			t.Fatalf("降序错误: %v %v", members, scores)
		}
	}

	top2, err := m.ZRange(ctx, "pop", 0, 1)
	if err != nil || len(top2) != 2 || top2[0] != "a" || top2[1] != "c" {
		t.Fatalf("TopN 截取错误: %v, %v", top2, err)
	}

	score, err := m.ZScore(ctx, "pop", "c")
	if err != nil || score != 75 {
		t.Fatalf("ZScore 错误: %f, %v", score, err)
	}
	if _, err := m.ZScore(ctx, "pop", "zzz"); !core.IsStoreNotFound(err) {
		t.Fatal("不存在的成员应返回 NOT_FOUND")
	}
}

func TestMemoryStoreHash(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	_ = m.HSet(ctx, "emb", "1", []byte("[1,0]"))
	_ = m.HSet(ctx, "emb", "2", []byte("[0,1]"))

	got, err := m.HGet(ctx, "emb", "1")
	if err != nil || string(got) != "[1,0]" {
		t.Fatalf("HGet 失败: %s, %v", got, err)
	}

	all, err := m.HGetAll(ctx, "emb")
	if err != nil || len(all) != 2 {
		t.Fatalf("HGetAll 失败: %v, %v", all, err)
	}
	if string(all["2"]) != "[0,1]" {
		t.Fatalf("HGetAll 字段错误: %v", all)
	}
}

func TestAdaptersRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	meta := &core.ItemMeta{
		ItemID:       101,
		Title:        "Star Forge",
		Genres:       []string{"rpg", "space"},
		Developer:    "nova",
		QualityScore: 0.9,
	}
	if err := SeedItemMeta(ctx, m, meta, 100); err != nil {
		t.Fatalf("写入元数据失败: %v", err)
	}
	if err := SeedItemVector(ctx, m, 101, []float64{1, 0, 0, 0}); err != nil {
		t.Fatalf("写入向量失败: %v", err)
	}
	if err := SeedUserVector(ctx, m, 1, []float64{0.5, 0.5, 0, 0}); err != nil {
		t.Fatalf("写入用户向量失败: %v", err)
	}
	if err := SeedInteraction(ctx, m, 1, 101, 1000, true); err != nil {
		t.Fatalf("写入交互失败: %v", err)
	}

	catalog := &KVCatalogStore{KV: m}
	got, err := catalog.GetItem(ctx, 101)
	if err != nil || got.Title != "Star Forge" {
		t.Fatalf("读取元数据失败: %+v, %v", got, err)
	}
	if _, err := catalog.GetItem(ctx, 999); !core.IsNotFound(err) {
		t.Fatalf("缺失物品应返回 NOT_FOUND，实际 %v", err)
	}

	popular, err := catalog.ListPopular(ctx, "", 10)
	if err != nil || len(popular) != 1 || popular[0].ItemID != 101 {
		t.Fatalf("全局热门榜错误: %v, %v", popular, err)
	}
	byGenre, err := catalog.ListPopular(ctx, "rpg", 10)
	if err != nil || len(byGenre) != 1 {
		t.Fatalf("类型分榜错误: %v, %v", byGenre, err)
	}

	emb := &KVEmbeddingStore{KV: m}
	vec, err := emb.ItemVector(ctx, 101)
	if err != nil || len(vec) != 4 {
		t.Fatalf("读取物品向量失败: %v, %v", vec, err)
	}
	if _, err := emb.ItemVector(ctx, 999); !core.IsEmbeddingUnavailable(err) {
		t.Fatalf("缺失向量应返回 EMBEDDING_UNAVAILABLE，实际 %v", err)
	}
	all, err := emb.AllItemVectors(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("全量向量读取失败: %v, %v", all, err)
	}

	history := &KVHistoryProvider{KV: m}
	count, err := history.InteractionCount(ctx, 1)
	if err != nil || count != 1 {
		t.Fatalf("交互数错误: %d, %v", count, err)
	}
	owned, err := history.OwnedItems(ctx, 1)
	if err != nil {
		t.Fatalf("读取已拥有失败: %v", err)
	}
	if _, ok := owned[101]; !ok {
		t.Fatal("101 应在已拥有集合里")
	}
	recent, err := history.RecentItems(ctx, 1, 5)
	if err != nil || len(recent) != 1 || recent[0] != 101 {
		t.Fatalf("近期交互错误: %v, %v", recent, err)
	}
}

func TestCachedEmbeddingStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	_ = SeedItemVector(ctx, m, 1, []float64{1, 0})
	inner := &KVEmbeddingStore{KV: m}
	cached, err := NewCachedEmbeddingStore(inner, 16)
	if err != nil {
		t.Fatalf("创建缓存失败: %v", err)
	}

	if _, err := cached.ItemVector(ctx, 1); err != nil {
		t.Fatalf("首次读取失败: %v", err)
	}

	// 底层删掉后仍可命中缓存
	_ = m.Delete(ctx, "hash:emb:item:1")
	vec, err := cached.ItemVector(ctx, 1)
	if err != nil || len(vec) != 2 {
		t.Fatalf("缓存命中失败: %v, %v", vec, err)
	}

	if _, err := cached.ItemVector(ctx, 999); !core.IsEmbeddingUnavailable(err) {
		t.Fatalf("缺失向量不应被缓存吞掉: %v", err)
	}
}
