package dashboard

import (
	"time"

	"pulse/internal/core"
)

// View is everything the presentation layer renders. It is recomputed after
// every selection or snapshot change and must be treated as read-only.
type View struct {
	SnapshotID  string    `json:"snapshot_id"`
	Source      string    `json:"source"`
	RefreshedAt time.Time `json:"refreshed_at"`
	Selection   Selection `json:"selection"`

	Filtered    []core.Record         `json:"records"`
	Metrics     core.Metrics          `json:"metrics"`
	Rollups     []core.CategoryRollup `json:"rollups"`
	Categories  []string              `json:"categories"`
	Growth      core.Growth           `json:"growth"`
	Status      core.FilterStatus     `json:"status"`
	Performance core.Performance      `json:"performance"`
	Daily       []core.DailyPoint     `json:"daily"`

	Loading bool  `json:"loading"`
	Err     error `json:"-"`
}

// Snapshot is one immutable result of reading the record source.
type Snapshot struct {
	ID          string
	Source      string
	Records     []core.Record
	Categories  []string
	RefreshedAt time.Time
}

func computeView(snap Snapshot, sel Selection, growth core.GrowthCalculator) View {
	filtered := core.Filter(snap.Records, sel.DateInterval, sel.Categories)
	metrics, rollups := core.Aggregate(filtered)
	categories := snap.Categories
	if categories == nil {
		categories = []string{}
	}
	return View{
		SnapshotID:  snap.ID,
		Source:      snap.Source,
		RefreshedAt: snap.RefreshedAt,
		Selection:   sel,
		Filtered:    filtered,
		Metrics:     metrics,
		Rollups:     rollups,
		Categories:  categories,
		Growth:      growth.Growth(snap.Records, sel.DateInterval, sel.Categories, metrics),
		Status:      core.NewFilterStatus(len(snap.Records), len(filtered), sel.Categories, categories),
		Performance: core.ScorePerformance(filtered),
		Daily:       core.DailySeries(filtered),
	}
}
