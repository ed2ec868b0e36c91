package serving

import (
	"sort"

	"github.com/gamerec/gamerec/core"
)

func sortScored(hits []core.ScoredID) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ItemID < hits[j].ItemID
	})
}

func sortInfluences(infs []Influence) {
	sort.Slice(infs, func(i, j int) bool {
		if infs[i].Weight != infs[j].Weight {
			return infs[i].Weight > infs[j].Weight
		}
		return infs[i].ItemID < infs[j].ItemID
	})
}
