package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 汇总推荐引擎的可调参数（支持 YAML 加载），默认值对齐线上经验值。
type Config struct {
	Serving ServingConfig `yaml:"serving"`
	Recall  RecallConfig  `yaml:"recall"`
	Index   IndexConfig   `yaml:"index"`
}

// ServingConfig 是服务编排层配置。
type ServingConfig struct {
	DefaultTopK     int `yaml:"default_topk"`
	MaxTopK         int `yaml:"max_topk"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// RecallConfig 是召回层配置。
type RecallConfig struct {
	// Size 是召回候选条数（远大于 topk，给排序留余量）
	Size int `yaml:"size"`

	// PoolFactor 控制精确回退路径的候选池大小（PoolFactor × limit）
	PoolFactor int `yaml:"pool_factor"`

	// MinInteractionForContent / MinInteractionForEmbedding 驱动算法自动选择：
	// n < content 阈值走热门，content ≤ n ≤ embedding 阈值走内容，再往上走向量
	MinInteractionForContent   int `yaml:"min_interaction_for_content"`
	MinInteractionForEmbedding int `yaml:"min_interaction_for_embedding"`
}

// IndexConfig 是向量索引配置。阈值是数据规模启发式，不是硬约定。
type IndexConfig struct {
	// Dim 是向量固定维度，维度不符的向量在构建时丢弃
	Dim int `yaml:"dim"`

	// Kind 非空时强制索引类型（flat / ivf / hnsw），为空按规模自动选择
	Kind string `yaml:"kind"`

	// FlatMaxItems 以下用精确索引，GraphMinItems 以上用图索引，中间用倒排聚类
	FlatMaxItems  int `yaml:"flat_max_items"`
	GraphMinItems int `yaml:"graph_min_items"`

	// NList / NProbe 是聚类索引参数（聚类中心数 / 查询探查数）
	NList  int `yaml:"nlist"`
	NProbe int `yaml:"nprobe"`

	// M / EF 是图索引参数（每节点连接数 / 搜索宽度）
	M  int `yaml:"m"`
	EF int `yaml:"ef"`
}

// DefaultConfig 返回带默认值的配置。
func DefaultConfig() *Config {
	return &Config{
		Serving: ServingConfig{
			DefaultTopK:     10,
			MaxTopK:         100,
			CacheTTLSeconds: 3600,
		},
		Recall: RecallConfig{
			Size:                       500,
			PoolFactor:                 2,
			MinInteractionForContent:   3,
			MinInteractionForEmbedding: 5,
		},
		Index: IndexConfig{
			Dim:           64,
			FlatMaxItems:  1024,
			GraphMinItems: 100000,
			NList:         100,
			NProbe:        10,
			M:             32,
			EF:            64,
		},
	}
}

// LoadConfig 从 YAML 文件加载配置，未出现的字段保留默认值。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
