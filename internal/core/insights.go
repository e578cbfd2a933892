package core

import (
	"fmt"
	"math"
)

// FilterStatus describes how much of the snapshot the current selection shows.
type FilterStatus struct {
	Total                int  `json:"total"`
	Shown                int  `json:"shown"`
	SelectedCategories   int  `json:"selected_categories"`
	KnownCategories      int  `json:"known_categories"`
	CategoryFilterActive bool `json:"category_filter_active"`
}

// NewFilterStatus builds the status line data. A category filter counts as
// active only when some, but not all, known categories are selected.
func NewFilterStatus(total, shown int, sel CategorySelection, known []string) FilterStatus {
	return FilterStatus{
		Total:                total,
		Shown:                shown,
		SelectedCategories:   sel.Len(),
		KnownCategories:      len(known),
		CategoryFilterActive: sel.Len() > 0 && sel.Len() < len(known),
	}
}

func (s FilterStatus) Summary() string {
	line := fmt.Sprintf("Showing %d of %d records", s.Shown, s.Total)
	if s.CategoryFilterActive {
		noun := "categories"
		if s.SelectedCategories == 1 {
			noun = "category"
		}
		line += fmt.Sprintf(" • %d %s selected", s.SelectedCategories, noun)
	}
	return line
}

// Performance holds 0-100 scores for the radar chart.
type Performance struct {
	Revenue    int `json:"revenue"`
	Users      int `json:"users"`
	Orders     int `json:"orders"`
	Conversion int `json:"conversion"`
}

// ScorePerformance scores each measure as its mean relative to its maximum,
// and conversion as orders per user. Empty input scores zero everywhere.
func ScorePerformance(records []Record) Performance {
	n := len(records)
	if n == 0 {
		return Performance{}
	}

	var (
		totalRev, maxRev       float64
		totalUsers, maxUsers   int64
		totalOrders, maxOrders int64
	)
	for _, r := range records {
		rev := r.Revenue.InexactFloat64()
		totalRev += rev
		maxRev = math.Max(maxRev, rev)
		totalUsers += r.Users
		if r.Users > maxUsers {
			maxUsers = r.Users
		}
		totalOrders += r.Orders
		if r.Orders > maxOrders {
			maxOrders = r.Orders
		}
	}

	p := Performance{
		Revenue: relativeScore(totalRev, maxRev, n),
		Users:   relativeScore(float64(totalUsers), float64(maxUsers), n),
		Orders:  relativeScore(float64(totalOrders), float64(maxOrders), n),
	}
	if totalUsers > 0 {
		p.Conversion = int(math.Round(float64(totalOrders) / float64(totalUsers) * 100))
	}
	return p
}

func relativeScore(total, max float64, n int) int {
	if max == 0 {
		return 0
	}
	return int(math.Round(total / (max * float64(n)) * 100))
}
