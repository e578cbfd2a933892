package dashboard

import (
	"time"

	"pulse/internal/core"
)

// DefaultWindowDays is the length of the initial trailing window.
const DefaultWindowDays = 30

// Selection is the user's current date interval and category filter. It is
// replaced as a whole value, never edited in place.
type Selection struct {
	DateInterval core.DateInterval      `json:"date_interval"`
	Categories   core.CategorySelection `json:"categories"`
}

// NewSelection returns the trailing window of windowDays days, today
// included, with no category filter.
func NewSelection(now time.Time, windowDays int) Selection {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	today := core.DateOf(now)
	return Selection{
		DateInterval: core.DateInterval{Start: today.AddDays(-(windowDays - 1)), End: today},
		Categories:   core.NewCategorySelection(),
	}
}

// Key identifies the selection for memoization.
func (s Selection) Key() string {
	return s.DateInterval.Start.String() + "|" + s.DateInterval.End.String() + "|" + s.Categories.Key()
}
