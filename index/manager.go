package index

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
	"github.com/gamerec/gamerec/pkg/vec"
)

// 索引错误定义
var (
	// ErrNotReady 表示尚无活跃快照，调用方应走回退召回路径
	ErrNotReady = core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexNotReady, "index: no active snapshot")

	// ErrCorrupt 表示查询时发现索引损坏（如维度不一致）
	ErrCorrupt = core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexCorrupt, "index: snapshot corrupt")
)

// Manager 管理索引快照的生命周期：构建、替换、回退。
//
// 并发模型：
//   - 查询只读 active 指针，多读者无锁并发
//   - 构建同一时刻只有一个在跑；替换是 O(1) 指针交换，不复制向量数据
//   - force=false 的重复构建是幂等 no-op；force=true 在当前构建完成后排队执行
type Manager struct {
	embeddings core.EmbeddingStore
	cfg        core.IndexConfig
	logger     zerolog.Logger

	active  atomic.Pointer[Snapshot]
	version atomic.Int64

	// buildMu 串行化构建，查询路径不取此锁
	buildMu sync.Mutex

	// needsRebuild 在查询发现损坏后置位，下次访问触发同步重建
	needsRebuild atomic.Bool
}

// NewManager 创建索引管理器。
func NewManager(embeddings core.EmbeddingStore, cfg core.IndexConfig, logger zerolog.Logger) *Manager {
	return &Manager{
		embeddings: embeddings,
		cfg:        cfg,
		logger:     logger.With().Str("component", "index").Logger(),
	}
}

// IsReady 判断是否存在活跃快照。
func (m *Manager) IsReady() bool {
	return m.active.Load() != nil
}

// Active 返回当前活跃快照，可能为 nil。
func (m *Manager) Active() *Snapshot {
	return m.active.Load()
}

// BuildIndex 从向量存储全量重建索引，成功后原子发布为活跃快照。
//
// force=false 且已有非损坏快照时直接返回现有版本（幂等 no-op）。
// 构建失败不影响现有快照：失败的重建对服务无害。
func (m *Manager) BuildIndex(ctx context.Context, force bool) (int64, error) {
	if !force && !m.needsRebuild.Load() {
		if snap := m.active.Load(); snap != nil {
			return snap.Version, nil
		}
	}

	// force=true 在此处排队等待在跑的构建结束，不并发重复干重活
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	// 拿到锁后复查：排队期间别人可能已经建好
	if !force && !m.needsRebuild.Load() {
		if snap := m.active.Load(); snap != nil {
			return snap.Version, nil
		}
	}

	raw, err := m.embeddings.AllItemVectors(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("index build aborted: embedding store read failed")
		return 0, fmt.Errorf("index build: %w", err)
	}
	if len(raw) == 0 {
		m.logger.Warn().Msg("index build aborted: no item vectors")
		return 0, core.NewDomainError(core.ModuleIndex, core.ErrorCodeNotFound, "index: no item vectors to build from")
	}

	version := m.version.Add(1)
	snap := buildSnapshot(version, raw, m.cfg)

	// 唯一的互斥点：O(1) 指针替换
	m.active.Store(snap)
	m.needsRebuild.Store(false)

	m.logger.Info().
		Int64("version", snap.Version).
		Str("kind", string(snap.Kind)).
		Int("items", snap.ItemCount).
		Msg("index snapshot published")
	return snap.Version, nil
}

// BuildInBackground 异步触发一次构建，进程启动期调用，不阻塞其余模块就绪。
// 构建完成前 Query 返回 ErrNotReady，调用方走回退路径。
func (m *Manager) BuildInBackground(ctx context.Context) {
	go func() {
		if _, err := m.BuildIndex(ctx, false); err != nil {
			m.logger.Warn().Err(err).Msg("background index build failed, serving stays on fallback")
		}
	}()
}

// Query 在活跃快照中检索与 query 最相似的 k 个物品。
// 结果按相似度降序，同分按物品 ID 升序。
func (m *Manager) Query(ctx context.Context, query []float64, k int) ([]core.ScoredID, error) {
	// 损坏后的下次访问先同步重建
	if m.needsRebuild.Load() {
		if _, err := m.BuildIndex(ctx, true); err != nil {
			m.logger.Warn().Err(err).Msg("rebuild-on-access failed")
		}
	}

	snap := m.active.Load()
	if snap == nil {
		return nil, ErrNotReady
	}

	if len(query) != snap.Dim {
		// 维度不一致视为索引与向量存储脱节，标记下次访问重建
		m.needsRebuild.Store(true)
		m.logger.Error().
			Int("query_dim", len(query)).
			Int("index_dim", snap.Dim).
			Msg("dimension mismatch, rebuild scheduled")
		return nil, ErrCorrupt
	}

	hits := snap.Search(vec.Normalize(query), k)
	out := make([]core.ScoredID, len(hits))
	for i, h := range hits {
		out[i] = core.ScoredID{ItemID: snap.ids[h.row], Score: h.score}
	}
	return out, nil
}
