package recall

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/index"
)

// fakeEmbeddings 提供固定的用户/物品向量。
type fakeEmbeddings struct {
	user  []float64
	items map[int64][]float64
}

func (f *fakeEmbeddings) UserVector(ctx context.Context, userID int64) ([]float64, error) {
	if f.user == nil {
		return nil, core.ErrEmbeddingUnavailable
	}
	return f.user, nil
}

func (f *fakeEmbeddings) ItemVector(ctx context.Context, itemID int64) ([]float64, error) {
	v, ok := f.items[itemID]
	if !ok {
		return nil, core.ErrEmbeddingUnavailable
	}
	return v, nil
}

func (f *fakeEmbeddings) ItemVectorsBatch(ctx context.Context, ids []int64) (map[int64][]float64, error) {
	out := make(map[int64][]float64)
	for _, id := range ids {
		if v, ok := f.items[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeEmbeddings) AllItemVectors(ctx context.Context) (map[int64][]float64, error) {
	return f.items, nil
}

// fakeCatalog 提供固定热门榜与元数据。
type fakeCatalog struct {
	popular []core.ScoredID
	metas   map[int64]*core.ItemMeta
}

func (f *fakeCatalog) GetItem(ctx context.Context, itemID int64) (*core.ItemMeta, error) {
	m, ok := f.metas[itemID]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return m, nil
}

func (f *fakeCatalog) ListPopular(ctx context.Context, genre string, limit int) ([]core.ScoredID, error) {
	if limit > len(f.popular) {
		limit = len(f.popular)
	}
	return f.popular[:limit], nil
}

func TestEmbeddingRecallExactFallbackWhenIndexNotReady(t *testing.T) {
	emb := &fakeEmbeddings{
		user: []float64{1, 0, 0, 0},
		items: map[int64][]float64{
			1: {1, 0, 0, 0},
			2: {0, 1, 0, 0},
			3: {0.9, 0.1, 0, 0},
		},
	}
	catalog := &fakeCatalog{popular: []core.ScoredID{
		{ItemID: 1, Score: 100}, {ItemID: 2, Score: 90}, {ItemID: 3, Score: 80},
	}}

	cfg := core.DefaultConfig().Index
	cfg.Dim = 4
	idx := index.NewManager(emb, cfg, zerolog.Nop()) // 未构建，查询返回 NotReady

	r := &Embedding{Embeddings: emb, Catalog: catalog, Index: idx, PoolFactor: 2, Logger: zerolog.Nop()}
	rctx := &core.RecommendContext{UserID: 1, InteractionCount: 10}

	items, err := r.Recall(context.Background(), rctx, 3)
	if err != nil {
		t.Fatalf("向量召回不应报错: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("热门池非空时精确回退不应为空")
	}
	if items[0].Source != core.SourceEmbeddingExact {
		t.Fatalf("回退路径来源应为 embedding_exact，实际 %s", items[0].Source)
	}
	// 与用户向量最相似的是物品 1
	if items[0].ID != 1 {
		t.Fatalf("期望最相似物品 1 在首位，实际 %d", items[0].ID)
	}
}

func TestEmbeddingRecallNoUserVectorReturnsEmpty(t *testing.T) {
	emb := &fakeEmbeddings{user: nil}
	r := &Embedding{Embeddings: emb, Catalog: &fakeCatalog{}, Logger: zerolog.Nop()}
	rctx := &core.RecommendContext{UserID: 7}

	items, err := r.Recall(context.Background(), rctx, 5)
	if err != nil {
		t.Fatalf("缺少用户向量时不应报错: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("缺少用户向量时应返回空集，实际 %d 条", len(items))
	}
}

func TestEmbeddingRecallANNPath(t *testing.T) {
	emb := &fakeEmbeddings{
		user: []float64{1, 0, 0, 0},
		items: map[int64][]float64{
			1: {1, 0, 0, 0},
			2: {0, 1, 0, 0},
			3: {0.8, 0.2, 0, 0},
			4: {0, 0, 1, 0},
		},
	}
	cfg := core.DefaultConfig().Index
	cfg.Dim = 4
	idx := index.NewManager(emb, cfg, zerolog.Nop())
	if _, err := idx.BuildIndex(context.Background(), false); err != nil {
		t.Fatalf("构建失败: %v", err)
	}

	r := &Embedding{Embeddings: emb, Catalog: &fakeCatalog{}, Index: idx, Logger: zerolog.Nop()}
	rctx := &core.RecommendContext{UserID: 1, Owned: map[int64]struct{}{1: {}}}

	items, err := r.Recall(context.Background(), rctx, 2)
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 条，实际 %d", len(items))
	}
	for _, it := range items {
		if it.ID == 1 {
			t.Fatal("已拥有物品应被剔除")
		}
		if it.Source != core.SourceEmbeddingANN {
			t.Fatalf("ANN 路径来源应为 embedding_ann，实际 %s", it.Source)
		}
	}
	if items[0].ID != 3 {
		t.Fatalf("剔除自身后最相似应为物品 3，实际 %d", items[0].ID)
	}
}
