package rank

// Profile 是一套排序策略参数。权重与约束在构建时固定，
// 请求通过 strategy 字段选择，未知名称回退 default。
type Profile struct {
	Name string

	// RelevanceWeight + QualityWeight 应为 1，融合打分时使用
	RelevanceWeight float64
	QualityWeight   float64

	// DiversityWeight 控制同类目重复的衰减强度，0 表示关闭
	DiversityWeight float64

	// QualityFloor 低于该质量分的物品被过滤
	QualityFloor float64

	// 硬约束：结果里同主类型 / 同开发商的最大数量，0 表示不限制
	MaxPerGenre     int
	MaxPerDeveloper int
}

const DefaultProfileName = "default"

// Profiles 内置三套策略。
var Profiles = map[string]Profile{
	"default": {
		Name:            "default",
		RelevanceWeight: 0.7,
		QualityWeight:   0.3,
		DiversityWeight: 0.3,
		QualityFloor:    0,
		MaxPerGenre:     3,
		MaxPerDeveloper: 2,
	},
	"diversity_focused": {
		Name:            "diversity_focused",
		RelevanceWeight: 0.6,
		QualityWeight:   0.4,
		DiversityWeight: 0.6,
		QualityFloor:    0,
		MaxPerGenre:     2,
		MaxPerDeveloper: 1,
	},
	"quality_focused": {
		Name:            "quality_focused",
		RelevanceWeight: 0.5,
		QualityWeight:   0.5,
		DiversityWeight: 0.2,
		QualityFloor:    0.6,
		MaxPerGenre:     3,
		MaxPerDeveloper: 2,
	},
}

// ProfileByName 取策略，未知名称回退 default。
func ProfileByName(name string) Profile {
	if p, ok := Profiles[name]; ok {
		return p
	}
	return Profiles[DefaultProfileName]
}
