package core

import (
	"time"

	"github.com/gamerec/gamerec/pkg/utils"
)

// 召回来源常量。每个候选在一次召回中只会来自一个来源；
// 多来源合并时保留最高分对应的来源（见 recall.Fanout）。
const (
	SourcePopularity     = "popularity"      // 热门召回
	SourceEmbeddingANN   = "embedding_ann"   // 向量索引召回
	SourceEmbeddingExact = "embedding_exact" // 向量精确检索（索引不可用时的回退路径）
	SourceContent        = "content"         // 内容（类型/标签）召回
	SourceCache          = "cache"           // 缓存命中（仅用于响应标注）
)

// Item 是推荐链路中的统一承载结构：候选分数、来源、元信息、标签。
// 召回阶段产出 Item，排序各阶段就地改写 Score；生命周期仅限单次请求。
type Item struct {
	ID     int64
	Score  float64 // 当前阶段分数：召回阶段为 raw_score，打分之后为综合分
	Source string  // 召回来源（SourceXXX）

	// RawScore 保留召回原始分，打分阶段覆写 Score 之后仍可随响应透出。
	RawScore float64

	// Meta 是物品元数据的只读副本，打分阶段批量补全；可能为 nil。
	Meta *ItemMeta

	// Labels 用于解释与观测（召回来源、过滤原因等）。
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{ID: id, Labels: make(map[string]utils.Label)}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ItemMeta 是商品目录中一个游戏的只读快照，真实数据由外部目录存储持有。
type ItemMeta struct {
	ItemID       int64     `json:"item_id"`
	Title        string    `json:"title"`
	Genres       []string  `json:"genres"`
	Tags         []string  `json:"tags"`
	Developer    string    `json:"developer"`
	Publisher    string    `json:"publisher"`
	Price        float64   `json:"price"`
	QualityScore float64   `json:"quality_score"` // 0~1
	ReleaseTime  time.Time `json:"release_time"`
}

// DominantGenre 返回首个类型，作为多样性控制的主类型。
func (m *ItemMeta) DominantGenre() string {
	if m == nil || len(m.Genres) == 0 {
		return ""
	}
	return m.Genres[0]
}

// Recommendation 是最终返回给调用方的一条推荐，创建后不再修改。
type Recommendation struct {
	ItemID     int64   `json:"item_id"`
	FinalScore float64 `json:"final_score"`
	RawScore   float64 `json:"raw_score"` // 召回阶段原始分，便于解释最终分的来历
	Rank       int     `json:"rank"`      // 1 起始、连续
	Source     string  `json:"source"`
}

// ScoredID 是 (物品 ID, 分数) 对，索引查询与热门列表的返回单元。
type ScoredID struct {
	ItemID int64
	Score  float64
}
