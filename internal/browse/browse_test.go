package browse

import (
	"testing"

	"github.com/stemsi/surveychain/internal/model"
)

func form(id string, published bool, md func(*model.Metadata)) model.Form {
	f := model.Form{ID: id, Metadata: model.Metadata{Title: "Survey " + id, Published: published}}
	if md != nil {
		md(&f.Metadata)
	}
	return f
}

func ids(forms []model.Form) []string {
	out := make([]string, len(forms))
	for i, f := range forms {
		out[i] = f.ID
	}
	return out
}

func int64p(v int64) *int64 { return &v }

func TestFilter(t *testing.T) {
	forms := []model.Form{
		form("a", true, func(m *model.Metadata) {
			m.Title = "Coffee habits"
			m.Categories = []string{"food"}
			m.RewardAmount = 2_000_000
			m.Deadline = int64p(100)
		}),
		form("b", false, func(m *model.Metadata) { m.Title = "Coffee draft" }),
		form("c", true, func(m *model.Metadata) {
			m.Title = "Sleep"
			m.Categories = []string{"fitness-wellness", "coffee-lovers"}
			m.RewardAmount = 5_000_000
		}),
		form("d", true, func(m *model.Metadata) {
			m.Title = "Travel"
			m.Categories = []string{"food"}
			m.RewardAmount = 2_000_000
			m.Deadline = int64p(300)
		}),
	}
	forms[3].Responses = make([]model.FormResponse, 3)
	forms[0].Responses = make([]model.FormResponse, 1)

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"published only", Query{}, []string{"a", "c", "d"}},
		{"search title or category", Query{Search: "COFFEE"}, []string{"a", "c"}},
		{"category", Query{Category: "food"}, []string{"a", "d"}},
		{"all categories", Query{Category: AllCategories}, []string{"a", "c", "d"}},
		{"newest by deadline", Query{Sort: SortNewest}, []string{"d", "a", "c"}},
		{"reward stable on ties", Query{Sort: SortReward}, []string{"c", "a", "d"}},
		{"popularity", Query{Sort: SortPopularity}, []string{"d", "a", "c"}},
		{"unknown sort keeps order", Query{Sort: "alphabetical"}, []string{"a", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(forms, tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v want %v", got, tt.want)
				}
			}
		})
	}
}
