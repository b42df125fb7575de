package browse

import (
	"slices"
	"strings"

	"github.com/stemsi/surveychain/internal/model"
)

// Sort orders for the published-form catalogue.
type Sort string

const (
	SortNewest     Sort = "newest"
	SortReward     Sort = "reward"
	SortPopularity Sort = "popularity"
)

// AllCategories disables the category filter.
const AllCategories = "all"

// Query is the catalogue filter. Zero value lists every published form in
// backend order.
type Query struct {
	Search   string `form:"q" binding:"omitempty,max=100"`
	Category string `form:"category" binding:"omitempty,max=64"`
	Sort     Sort   `form:"sort" binding:"omitempty,oneof=newest reward popularity"`
}

// Filter returns the published forms matching q, sorted stably. The input
// slice is not modified.
func Filter(forms []model.Form, q Query) []model.Form {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]model.Form, 0, len(forms))
	for _, f := range forms {
		if !f.Metadata.Published {
			continue
		}
		if !matchesSearch(f.Metadata, needle) || !matchesCategory(f.Metadata, q.Category) {
			continue
		}
		out = append(out, f)
	}

	if cmp := comparator(q.Sort); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func matchesSearch(md model.Metadata, needle string) bool {
	if needle == "" || strings.Contains(strings.ToLower(md.Title), needle) {
		return true
	}
	for _, c := range md.Categories {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}

func matchesCategory(md model.Metadata, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return slices.Contains(md.Categories, category)
}

func comparator(s Sort) func(a, b model.Form) int {
	switch s {
	case SortNewest:
		return func(a, b model.Form) int { return compareDesc(deadline(a), deadline(b)) }
	case SortReward:
		return func(a, b model.Form) int { return compareDesc(a.Metadata.RewardAmount, b.Metadata.RewardAmount) }
	case SortPopularity:
		return func(a, b model.Form) int { return compareDesc(len(a.Responses), len(b.Responses)) }
	default:
		return nil
	}
}

func deadline(f model.Form) int64 {
	if f.Metadata.Deadline == nil {
		return 0
	}
	return *f.Metadata.Deadline
}

func compareDesc[T int | int64 | uint64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
