package feast

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/gamerec/gamerec/core"
)

// EmbeddingStore 是基于 Feast 在线特征的向量存储实现。
// 向量以 double list 特征存放：
//
//	user_embeddings:vector  entity user_id
//	game_embeddings:vector  entity game_id
//
// Feast 不提供全量扫描，AllItemVectors 依赖目录热门榜枚举 ID。
type EmbeddingStore struct {
	client  *feastsdk.GrpcClient
	project string
	catalog core.CatalogStore

	// scanLimit 是 AllItemVectors 枚举目录时的上限
	scanLimit int
}

const (
	userFeature = "user_embeddings:vector"
	itemFeature = "game_embeddings:vector"
	userEntity  = "user_id"
	itemEntity  = "game_id"
)

// Config 是 Feast 连接配置。
type Config struct {
	Host    string
	Port    int
	Project string

	// Token 非空时走静态 Token 认证
	Token string
}

func NewEmbeddingStore(cfg Config, catalog core.CatalogStore) (*EmbeddingStore, error) {
	port := cfg.Port
	if port == 0 {
		port = 6565
	}

	var client *feastsdk.GrpcClient
	var err error
	if cfg.Token != "" {
		security := feastsdk.SecurityConfig{
			EnableTLS:  false,
			Credential: feastsdk.NewStaticCredential(cfg.Token),
		}
		client, err = feastsdk.NewSecureGrpcClient(cfg.Host, port, security)
	} else {
		client, err = feastsdk.NewGrpcClient(cfg.Host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast grpc client: %w", err)
	}

	return &EmbeddingStore{
		client:    client,
		project:   cfg.Project,
		catalog:   catalog,
		scanLimit: 200000,
	}, nil
}

var _ core.EmbeddingStore = (*EmbeddingStore)(nil)

func (s *EmbeddingStore) UserVector(ctx context.Context, userID int64) ([]float64, error) {
	vecs, err := s.fetch(ctx, userFeature, userEntity, []int64{userID})
	if err != nil {
		return nil, err
	}
	vec, ok := vecs[userID]
	if !ok {
		return nil, core.ErrEmbeddingUnavailable
	}
	return vec, nil
}

func (s *EmbeddingStore) ItemVector(ctx context.Context, itemID int64) ([]float64, error) {
	vecs, err := s.fetch(ctx, itemFeature, itemEntity, []int64{itemID})
	if err != nil {
		return nil, err
	}
	vec, ok := vecs[itemID]
	if !ok {
		return nil, core.ErrEmbeddingUnavailable
	}
	return vec, nil
}

func (s *EmbeddingStore) ItemVectorsBatch(ctx context.Context, ids []int64) (map[int64][]float64, error) {
	if len(ids) == 0 {
		return map[int64][]float64{}, nil
	}
	return s.fetch(ctx, itemFeature, itemEntity, ids)
}

// AllItemVectors 借目录热门榜枚举全量物品 ID，再批量拉向量。
func (s *EmbeddingStore) AllItemVectors(ctx context.Context) (map[int64][]float64, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("feast: catalog required for full vector scan")
	}
	scored, err := s.catalog.ListPopular(ctx, "", s.scanLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(scored))
	for _, sc := range scored {
		ids = append(ids, sc.ItemID)
	}
	return s.ItemVectorsBatch(ctx, ids)
}

// fetch 一次在线特征查询，缺失向量的实体从结果中省略。
func (s *EmbeddingStore) fetch(ctx context.Context, feature, entity string, ids []int64) (map[int64][]float64, error) {
	rows := make([]feastsdk.Row, len(ids))
	for i, id := range ids {
		rows[i] = feastsdk.Row{entity: feastsdk.Int64Val(id)}
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: []string{feature},
		Entities: rows,
		Project:  s.project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	out := make(map[int64][]float64, len(ids))
	respRows := resp.Rows()
	for i, row := range respRows {
		if i >= len(ids) {
			break
		}
		vec := doubleList(row[feature])
		if len(vec) > 0 {
			out[ids[i]] = vec
		}
	}
	return out, nil
}

func doubleList(v *feasttypes.Value) []float64 {
	if v == nil {
		return nil
	}
	if dl := v.GetDoubleListVal(); dl != nil {
		return dl.GetVal()
	}
	// 训练侧偶尔写成 float list
	if fl := v.GetFloatListVal(); fl != nil {
		vals := fl.GetVal()
		out := make([]float64, len(vals))
		for i, f := range vals {
			out[i] = float64(f)
		}
		return out
	}
	return nil
}
