package rerank

import (
	"context"
	"testing"

	"github.com/gamerec/gamerec/core"
)

func metaItem(id int64, score float64, genres []string, dev string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.RawScore = score
	it.Meta = &core.ItemMeta{ItemID: id, Genres: genres, Developer: dev}
	return it
}

func TestDiversityGenreCap(t *testing.T) {
	// 5 个 rpg 高分 + 5 个其他类型低分，cap=2 时 rpg 不应超过 2 个进前列
	items := []*core.Item{
		metaItem(1, 0.99, []string{"rpg"}, "a"),
		metaItem(2, 0.98, []string{"rpg"}, "b"),
		metaItem(3, 0.97, []string{"rpg"}, "c"),
		metaItem(4, 0.96, []string{"rpg"}, "d"),
		metaItem(5, 0.95, []string{"rpg"}, "e"),
		metaItem(6, 0.5, []string{"racing"}, "f"),
		metaItem(7, 0.4, []string{"sim"}, "g"),
		metaItem(8, 0.3, []string{"strategy"}, "h"),
		metaItem(9, 0.2, []string{"puzzle"}, "i"),
		metaItem(10, 0.1, []string{"sports"}, "j"),
	}

	n := &Diversity{Weight: 0.3, MaxPerGenre: 2}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("重排失败: %v", err)
	}

	rpg := 0
	for _, it := range out[:7] {
		if it.Meta.DominantGenre() == "rpg" {
			rpg++
		}
	}
	// 存在足够多非 rpg 候选时，前 7 位 rpg 不超过上限
	if rpg > 2 {
		t.Fatalf("同主类型超过上限: %d 个 rpg", rpg)
	}
	// 候选不丢失，只重排
	if len(out) != len(items) {
		t.Fatalf("重排不应丢失候选: %d != %d", len(out), len(items))
	}
}

func TestDiversityDeveloperCap(t *testing.T) {
	items := []*core.Item{
		metaItem(1, 0.9, []string{"rpg"}, "nova"),
		metaItem(2, 0.8, []string{"racing"}, "nova"),
		metaItem(3, 0.7, []string{"sim"}, "nova"),
		metaItem(4, 0.1, []string{"puzzle"}, "leaf"),
	}

	n := &Diversity{MaxPerDeveloper: 2}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("重排失败: %v", err)
	}

	// 前三位里 nova 最多 2 个，leaf 的低分物品被提前
	nova := 0
	for _, it := range out[:3] {
		if it.Meta.Developer == "nova" {
			nova++
		}
	}
	if nova > 2 {
		t.Fatalf("同开发商超过上限: %d", nova)
	}
}

func TestDiversityDeterministicTies(t *testing.T) {
	build := func() []*core.Item {
		return []*core.Item{
			metaItem(30, 0.5, []string{"rpg"}, "a"),
			metaItem(10, 0.5, []string{"rpg"}, "b"),
			metaItem(20, 0.5, []string{"rpg"}, "c"),
		}
	}

	n := &Diversity{Weight: 0.3, MaxPerGenre: 10}
	first, _ := n.Process(context.Background(), nil, build())
	for round := 0; round < 3; round++ {
		again, _ := n.Process(context.Background(), nil, build())
		for i := range first {
			if first[i].ID != again[i].ID {
				t.Fatalf("同分重排不确定: 第 %d 位 %d != %d", i, first[i].ID, again[i].ID)
			}
		}
	}
	// 全同分时小 ID 在前
	if first[0].ID != 10 {
		t.Fatalf("同分应按小 ID 优先，实际首位 %d", first[0].ID)
	}
}

func TestDiversityNoMetadataPassesThrough(t *testing.T) {
	a := core.NewItem(1)
	a.Score = 0.9
	b := core.NewItem(2)
	b.Score = 0.8

	n := &Diversity{Weight: 0.5, MaxPerGenre: 1}
	out, err := n.Process(context.Background(), nil, []*core.Item{a, b})
	if err != nil {
		t.Fatalf("重排失败: %v", err)
	}
	if len(out) != 2 || out[0].ID != 1 {
		t.Fatalf("无元数据候选应按分数原序: %+v", out)
	}
}

func TestTopNTruncates(t *testing.T) {
	items := []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)}

	n := &TopNNode{N: 2}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("截断失败: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("期望 2 条，实际 %d", len(out))
	}

	all, _ := (&TopNNode{N: 0}).Process(context.Background(), nil, items)
	if len(all) != 3 {
		t.Fatalf("N<=0 不应截断")
	}
}
