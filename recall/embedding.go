package recall

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/index"
	"github.com/gamerec/gamerec/pkg/utils"
	"github.com/gamerec/gamerec/pkg/vec"
)

// Embedding 是向量召回源：用用户向量在 ANN 索引里查近邻。
//
// 该源承诺不向上层返回错误：索引未就绪或用户向量缺失时降级为
// 精确暴力检索（在热门池上算余弦），池子都拿不到才返回空集。
type Embedding struct {
	Embeddings core.EmbeddingStore
	Catalog    core.CatalogStore
	Index      *index.Manager
	PoolFactor int
	Logger     zerolog.Logger
}

func (r *Embedding) Name() string { return "recall.embedding" }

func (r *Embedding) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	userVec, err := r.Embeddings.UserVector(ctx, rctx.UserID)
	if err != nil || len(userVec) == 0 {
		r.Logger.Debug().Int64("user_id", rctx.UserID).Msg("user vector unavailable, embedding recall empty")
		return nil, nil
	}

	if r.Index != nil {
		hits, err := r.Index.Query(ctx, userVec, limit+len(rctx.Owned))
		if err == nil {
			return r.toItems(rctx, hits, limit, core.SourceEmbeddingANN), nil
		}
		r.Logger.Warn().Err(err).Msg("ann query failed, fall back to exact search")
	}
	return r.exactFallback(ctx, rctx, userVec, limit), nil
}

// exactFallback 在热门池（limit*PoolFactor 条）上做精确余弦检索。
func (r *Embedding) exactFallback(
	ctx context.Context,
	rctx *core.RecommendContext,
	userVec []float64,
	limit int,
) []*core.Item {
	factor := r.PoolFactor
	if factor <= 0 {
		factor = 2
	}
	pool, err := r.Catalog.ListPopular(ctx, "", limit*factor)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("exact fallback pool unavailable")
		return nil
	}
	ids := make([]int64, 0, len(pool))
	for _, s := range pool {
		ids = append(ids, s.ItemID)
	}
	vecs, err := r.Embeddings.ItemVectorsBatch(ctx, ids)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("exact fallback item vectors unavailable")
		return nil
	}
	hits := make([]core.ScoredID, 0, len(vecs))
	for id, v := range vecs {
		if len(v) != len(userVec) {
			continue
		}
		hits = append(hits, core.ScoredID{ItemID: id, Score: vec.Cosine(userVec, v)})
	}
	sortScoredDesc(hits)
	return r.toItems(rctx, hits, limit, core.SourceEmbeddingExact)
}

func (r *Embedding) toItems(rctx *core.RecommendContext, hits []core.ScoredID, limit int, source string) []*core.Item {
	out := make([]*core.Item, 0, limit)
	for _, h := range hits {
		if rctx.Owns(h.ItemID) {
			continue
		}
		it := core.NewItem(h.ItemID)
		it.Score = h.Score
		it.RawScore = h.Score
		it.Source = source
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
		out = append(out, it)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// sortScoredDesc 按分数降序排列，同分取小 ID，保证结果确定。
func sortScoredDesc(hits []core.ScoredID) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ItemID < hits[j].ItemID
	})
}
