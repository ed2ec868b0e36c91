package serving

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/index"
	"github.com/gamerec/gamerec/pkg/utils"
	"github.com/gamerec/gamerec/pkg/vec"
	"github.com/gamerec/gamerec/rank"
	"github.com/gamerec/gamerec/recall"
)

// Timings 是单次请求的分阶段耗时（毫秒）。
type Timings struct {
	RecallMillis  float64 `json:"recall_ms"`
	RankingMillis float64 `json:"ranking_ms"`
	TotalMillis   float64 `json:"total_ms"`
}

// Response 是一次推荐请求的完整返回。
type Response struct {
	Recommendations []core.Recommendation `json:"recommendations"`
	AlgorithmUsed   string                `json:"algorithm_used"`
	Strategy        string                `json:"strategy"`
	CacheHit        bool                  `json:"cache_hit"`
	Timings         Timings               `json:"timings"`
}

// Influence 是解释接口返回的一条影响来源。
type Influence struct {
	ItemID int64   `json:"item_id"`
	Weight float64 `json:"weight"`
}

// BuildResult 是索引重建的返回。
type BuildResult struct {
	Version   int64 `json:"version"`
	ItemCount int   `json:"item_count"`
}

// cachedPayload 是结果缓存的存储格式，带算法归属保证缓存命中时不乱报来源。
type cachedPayload struct {
	AlgorithmUsed   string                `json:"algorithm_used"`
	Recommendations []core.Recommendation `json:"recommendations"`
}

// Engine 是服务编排层：缓存查询、召回、排序、缓存回写、耗时统计。
// 所有内部故障走降级链路，只有非法请求会向调用方报错。
type Engine struct {
	cfg        *core.Config
	cache      core.Store
	embeddings core.EmbeddingStore
	catalog    core.CatalogStore
	history    core.HistoryProvider
	orch       *recall.Orchestrator
	ranker     *rank.Ranker
	idx        *index.Manager
	logger     zerolog.Logger
}

func NewEngine(
	cfg *core.Config,
	cache core.Store,
	embeddings core.EmbeddingStore,
	catalog core.CatalogStore,
	history core.HistoryProvider,
	orch *recall.Orchestrator,
	ranker *rank.Ranker,
	idx *index.Manager,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		cfg:        cfg,
		cache:      cache,
		embeddings: embeddings,
		catalog:    catalog,
		history:    history,
		orch:       orch,
		ranker:     ranker,
		idx:        idx,
		logger:     logger.With().Str("component", "serving").Logger(),
	}
}

// CacheKey 由用户、算法、策略、topk 推导，同参请求共享缓存条目。
func CacheKey(userID int64, algorithm, strategy string, topK int) string {
	return fmt.Sprintf("rec:%d:%s:%s:%d", userID, algorithm, strategy, topK)
}

// Recommend 处理一次推荐请求。
//
// topK 为 0 取默认值；负数或超出上限返回 INVALID_REQUEST。
// algorithm / strategy 未知名称降级为 auto / default，不报错。
func (e *Engine) Recommend(
	ctx context.Context,
	userID int64,
	topK int,
	algorithm, strategy string,
) (*Response, error) {
	start := time.Now()

	if topK == 0 {
		topK = e.cfg.Serving.DefaultTopK
	}
	if topK < 0 || topK > e.cfg.Serving.MaxTopK {
		return nil, core.NewDomainError(core.ModuleServing, core.ErrorCodeInvalidRequest,
			fmt.Sprintf("topk must be in [1, %d], got %d", e.cfg.Serving.MaxTopK, topK))
	}
	if algorithm == "" {
		algorithm = recall.AlgorithmAuto
	}
	if strategy == "" {
		strategy = rank.DefaultProfileName
	}

	key := CacheKey(userID, algorithm, strategy, topK)
	if resp := e.readCache(ctx, key); resp != nil {
		resp.Strategy = strategy
		resp.Timings.TotalMillis = millisSince(start)
		return resp, nil
	}

	rctx := e.buildContext(ctx, userID, algorithm, strategy, topK)

	recallStart := time.Now()
	candidates, algoUsed, err := e.orch.Execute(ctx, rctx)
	if err != nil {
		// 召回编排不应报错，兜底降级为空候选
		e.logger.Error().Err(err).Int64("user_id", userID).Msg("recall orchestrator failed")
		candidates = nil
		algoUsed = recall.AlgorithmPopularity
	}
	recallMillis := millisSince(recallStart)

	rankStart := time.Now()
	ranked, err := e.ranker.Rank(ctx, rctx, candidates, topK)
	if err != nil {
		e.logger.Error().Err(err).Int64("user_id", userID).Msg("ranking failed")
		ranked = nil
	}
	rankingMillis := millisSince(rankStart)

	recs := toRecommendations(ranked)
	e.writeCache(ctx, key, &cachedPayload{AlgorithmUsed: algoUsed, Recommendations: recs})

	resp := &Response{
		Recommendations: recs,
		AlgorithmUsed:   algoUsed,
		Strategy:        strategy,
		CacheHit:        false,
		Timings: Timings{
			RecallMillis:  recallMillis,
			RankingMillis: rankingMillis,
			TotalMillis:   millisSince(start),
		},
	}
	e.logger.Info().
		Int64("user_id", userID).
		Str("algorithm", algoUsed).
		Str("strategy", strategy).
		Int("returned", len(recs)).
		Float64("recall_ms", recallMillis).
		Float64("ranking_ms", rankingMillis).
		Msg("recommend served")
	return resp, nil
}

// SimilarItems 直查索引，不走排序。索引未就绪时退到精确检索。
func (e *Engine) SimilarItems(ctx context.Context, itemID int64, limit int) ([]core.ScoredID, error) {
	if limit <= 0 {
		limit = e.cfg.Serving.DefaultTopK
	}
	query, err := e.embeddings.ItemVector(ctx, itemID)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleServing, core.ErrorCodeEmbeddingUnavailable,
			fmt.Sprintf("item %d has no vector", itemID))
	}

	// 多取一个，剔除自身后仍够 limit 条
	hits, err := e.idx.Query(ctx, query, limit+1)
	if err != nil {
		e.logger.Warn().Err(err).Int64("item_id", itemID).Msg("similar items ann query failed, exact fallback")
		hits = e.exactSimilar(ctx, query, limit+1)
	}

	out := make([]core.ScoredID, 0, limit)
	for _, h := range hits {
		if h.ItemID == itemID {
			continue
		}
		out = append(out, h)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (e *Engine) exactSimilar(ctx context.Context, query []float64, k int) []core.ScoredID {
	pool, err := e.catalog.ListPopular(ctx, "", k*e.cfg.Recall.PoolFactor)
	if err != nil {
		return nil
	}
	ids := make([]int64, 0, len(pool))
	for _, s := range pool {
		ids = append(ids, s.ItemID)
	}
	vecs, err := e.embeddings.ItemVectorsBatch(ctx, ids)
	if err != nil {
		return nil
	}
	hits := make([]core.ScoredID, 0, len(vecs))
	for id, v := range vecs {
		if len(v) != len(query) {
			continue
		}
		hits = append(hits, core.ScoredID{ItemID: id, Score: vec.Cosine(query, v)})
	}
	sortScored(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// RebuildIndex 触发索引重建并返回新快照信息。
func (e *Engine) RebuildIndex(ctx context.Context, force bool) (*BuildResult, error) {
	version, err := e.idx.BuildIndex(ctx, force)
	if err != nil {
		return nil, err
	}
	result := &BuildResult{Version: version}
	if snap := e.idx.Active(); snap != nil {
		result.ItemCount = snap.ItemCount
	}
	return result, nil
}

// StartIndexBuild 在后台启动初始构建，不阻塞进程就绪。
func (e *Engine) StartIndexBuild(ctx context.Context) {
	e.idx.BuildInBackground(ctx)
}

// Explain 返回对某条推荐影响最大的历史物品。
// 近期交互按新旧衰减（第 i 新权重 1/(i+1)），有向量时再乘相似度。
func (e *Engine) Explain(ctx context.Context, userID, itemID int64) ([]Influence, error) {
	recent, err := e.history.RecentItems(ctx, userID, 10)
	if err != nil || len(recent) == 0 {
		return nil, nil
	}

	target, terr := e.embeddings.ItemVector(ctx, itemID)
	targetMeta, _ := e.catalog.GetItem(ctx, itemID)

	out := make([]Influence, 0, len(recent))
	for i, id := range recent {
		// 有元数据时只保留与目标共享题材或标签的历史物品
		if targetMeta != nil {
			if meta, err := e.catalog.GetItem(ctx, id); err == nil && meta != nil {
				if !sharesAttr(targetMeta, meta) {
					continue
				}
			}
		}
		w := 1.0 / float64(i+1)
		if terr == nil {
			if v, err := e.embeddings.ItemVector(ctx, id); err == nil && len(v) == len(target) {
				sim := vec.Cosine(target, v)
				if sim < 0 {
					sim = 0
				}
				w *= sim
			}
		}
		if w > 0 {
			out = append(out, Influence{ItemID: id, Weight: w})
		}
	}
	sortInfluences(out)
	if len(out) > 5 {
		out = out[:5]
	}
	return out, nil
}

// buildContext 组装请求上下文，历史侧故障一律降级为空历史。
func (e *Engine) buildContext(ctx context.Context, userID int64, algorithm, strategy string, topK int) *core.RecommendContext {
	count, err := e.history.InteractionCount(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("interaction count unavailable, treat as cold start")
		count = 0
	}
	owned, err := e.history.OwnedItems(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("owned items unavailable")
		owned = nil
	}

	rctx := &core.RecommendContext{
		UserID:           userID,
		Algorithm:        algorithm,
		Strategy:         strategy,
		TopK:             topK,
		InteractionCount: count,
		Owned:            owned,
	}
	rctx.PutLabel("request", utils.Label{
		Value:  fmt.Sprintf("algo=%s,strategy=%s,topk=%d", algorithm, strategy, topK),
		Source: "serving",
	})
	return rctx
}

func (e *Engine) readCache(ctx context.Context, key string) *Response {
	raw, err := e.cache.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			e.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil
	}
	var payload cachedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, ignore")
		return nil
	}
	return &Response{
		Recommendations: payload.Recommendations,
		AlgorithmUsed:   payload.AlgorithmUsed,
		CacheHit:        true,
	}
}

// writeCache 回写结果缓存；写失败只记日志，重算是幂等的。
func (e *Engine) writeCache(ctx context.Context, key string, payload *cachedPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, raw, e.cfg.Serving.CacheTTLSeconds); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func toRecommendations(items []*core.Item) []core.Recommendation {
	recs := make([]core.Recommendation, 0, len(items))
	for i, it := range items {
		if it == nil {
			continue
		}
		recs = append(recs, core.Recommendation{
			ItemID:     it.ID,
			FinalScore: it.Score,
			RawScore:   it.RawScore,
			Rank:       i + 1,
			Source:     it.Source,
		})
	}
	return recs
}

func millisSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

// sharesAttr 判断两个物品是否共享至少一个题材或标签。
func sharesAttr(a, b *core.ItemMeta) bool {
	for _, g := range a.Genres {
		for _, h := range b.Genres {
			if g == h {
				return true
			}
		}
	}
	for _, t := range a.Tags {
		for _, u := range b.Tags {
			if t == u {
				return true
			}
		}
	}
	return false
}
