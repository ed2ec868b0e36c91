package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "both present",
			existing: Label{Value: "a", Source: "recall"},
			incoming: Label{Value: "b", Source: "rank"},
			want:     Label{Value: "a|b", Source: "recall,rank"},
		},
		{
			name:     "empty existing",
			existing: Label{},
			incoming: Label{Value: "b", Source: "rank"},
			want:     Label{Value: "b", Source: "rank"},
		},
		{
			name:     "empty incoming",
			existing: Label{Value: "a", Source: "recall"},
			incoming: Label{},
			want:     Label{Value: "a", Source: "recall"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel = %+v, want %+v", got, tt.want)
			}
		})
	}
}
