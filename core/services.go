package core

import "context"

// EmbeddingStore 是向量存储的领域接口。向量真值由离线训练产出并写入
// 外部存储（Redis / Feast），这里只做读取；索引与缓存持有的都是派生副本。
//
// 实现：
//   - store.KVEmbeddingStore（基于 KeyValueStore）
//   - store.CachedEmbeddingStore（LRU 装饰器）
//   - feast.EmbeddingStore（Feast 在线特征）
type EmbeddingStore interface {
	// UserVector 获取用户向量；缺失时返回 EMBEDDING_UNAVAILABLE
	UserVector(ctx context.Context, userID int64) ([]float64, error)

	// ItemVector 获取物品向量；缺失时返回 EMBEDDING_UNAVAILABLE
	ItemVector(ctx context.Context, itemID int64) ([]float64, error)

	// ItemVectorsBatch 批量获取物品向量，缺失的 ID 从结果中省略
	ItemVectorsBatch(ctx context.Context, ids []int64) (map[int64][]float64, error)

	// AllItemVectors 获取全量物品向量（索引重建专用）
	AllItemVectors(ctx context.Context) (map[int64][]float64, error)
}

// CatalogStore 是商品目录的领域接口，持久化在外部，这里只读。
type CatalogStore interface {
	// GetItem 获取物品元数据；不存在时返回 NOT_FOUND
	GetItem(ctx context.Context, itemID int64) (*ItemMeta, error)

	// ListPopular 按预计算热门分降序返回物品；genre 为空表示全局榜
	ListPopular(ctx context.Context, genre string, limit int) ([]ScoredID, error)
}

// HistoryProvider 是交互历史的领域接口。
type HistoryProvider interface {
	// InteractionCount 返回用户交互次数
	InteractionCount(ctx context.Context, userID int64) (int, error)

	// OwnedItems 返回用户已拥有/已屏蔽的物品集合
	OwnedItems(ctx context.Context, userID int64) (map[int64]struct{}, error)

	// RecentItems 按最近交互顺序返回物品 ID（新→旧），内容召回与解释使用
	RecentItems(ctx context.Context, userID int64, limit int) ([]int64, error)
}

// 领域错误定义
var (
	// ErrEmbeddingUnavailable 表示用户/物品缺少向量
	ErrEmbeddingUnavailable = NewDomainError(ModuleStore, ErrorCodeEmbeddingUnavailable, "embedding: vector not available")

	// ErrItemNotFound 表示目录中不存在该物品
	ErrItemNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "catalog: item not found")
)
