package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gamerec/gamerec/core"
)

type stubCatalog struct {
	metas map[int64]*core.ItemMeta
}

func (s *stubCatalog) GetItem(ctx context.Context, itemID int64) (*core.ItemMeta, error) {
	m, ok := s.metas[itemID]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return m, nil
}

func (s *stubCatalog) ListPopular(ctx context.Context, genre string, limit int) ([]core.ScoredID, error) {
	return nil, nil
}

func scored(id int64, score float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	return it
}

func TestScoreNodeBlendsRelevanceAndQuality(t *testing.T) {
	catalog := &stubCatalog{metas: map[int64]*core.ItemMeta{
		1: {ItemID: 1, QualityScore: 0.9},
		2: {ItemID: 2, QualityScore: 0.1},
	}}
	n := &ScoreNode{
		Catalog: catalog,
		Profile: Profile{Name: "default", RelevanceWeight: 0.7, QualityWeight: 0.3},
		Logger:  zerolog.Nop(),
	}

	// 分数已在 [0,1]，不归一
	items := []*core.Item{scored(1, 0.5), scored(2, 1.0)}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("打分失败: %v", err)
	}

	want1 := 0.7*0.5 + 0.3*0.9
	want2 := 0.7*1.0 + 0.3*0.1
	if math.Abs(out[0].Score-want1) > 1e-9 {
		t.Errorf("物品 1 综合分 = %f, want %f", out[0].Score, want1)
	}
	if math.Abs(out[1].Score-want2) > 1e-9 {
		t.Errorf("物品 2 综合分 = %f, want %f", out[1].Score, want2)
	}
	if out[0].RawScore != 0.5 {
		t.Errorf("RawScore 应保留召回原始分")
	}
}

func TestScoreNodeNormalizesOutOfRangeScores(t *testing.T) {
	catalog := &stubCatalog{metas: map[int64]*core.ItemMeta{
		1: {ItemID: 1, QualityScore: 0},
		2: {ItemID: 2, QualityScore: 0},
	}}
	n := &ScoreNode{
		Catalog: catalog,
		Profile: Profile{RelevanceWeight: 1, QualityWeight: 0},
		Logger:  zerolog.Nop(),
	}

	// 热门分远超 1，min-max 归一后落回 [0,1]
	items := []*core.Item{scored(1, 100), scored(2, 50)}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("打分失败: %v", err)
	}
	if out[0].Score != 1 || out[1].Score != 0 {
		t.Errorf("归一结果错误: %f, %f", out[0].Score, out[1].Score)
	}
}

func TestScoreNodeDropsCandidatesWithoutMetadata(t *testing.T) {
	catalog := &stubCatalog{metas: map[int64]*core.ItemMeta{
		1: {ItemID: 1, QualityScore: 0.5},
	}}
	n := &ScoreNode{Catalog: catalog, Profile: ProfileByName("default"), Logger: zerolog.Nop()}

	items := []*core.Item{scored(1, 0.5), scored(999, 0.9)}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("打分失败: %v", err)
	}
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("缺元数据的候选应被剔除: %+v", out)
	}
}

func TestProfileByNameFallsBackToDefault(t *testing.T) {
	if p := ProfileByName("nonexistent"); p.Name != DefaultProfileName {
		t.Errorf("未知策略应回退 default，实际 %s", p.Name)
	}
	if p := ProfileByName("diversity_focused"); p.DiversityWeight <= Profiles["default"].DiversityWeight {
		t.Errorf("diversity_focused 的多样性权重应高于 default")
	}
	if p := ProfileByName("quality_focused"); p.QualityFloor <= 0 {
		t.Errorf("quality_focused 应有质量下限")
	}
}
