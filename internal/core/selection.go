package core

import (
	"encoding/json"
	"sort"
	"strings"
)

// DateInterval is inclusive on both ends. Start <= End is expected but not
// enforced; an inverted interval simply contains no day.
type DateInterval struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d falls within [Start, End].
func (i DateInterval) Contains(d Date) bool {
	return !d.Before(i.Start) && !d.After(i.End)
}

// Days returns the number of calendar days covered, 0 when inverted.
func (i DateInterval) Days() int {
	if i.Start.After(i.End) {
		return 0
	}
	return int(i.End.Sub(i.Start.Time).Hours()/24) + 1
}

// CategorySelection is a set of category names. The empty set means
// "no category filter", not "exclude everything".
type CategorySelection struct {
	names map[string]struct{}
}

// NewCategorySelection trims and dedupes names; blank names are ignored.
func NewCategorySelection(names ...string) CategorySelection {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return CategorySelection{names: set}
}

func (s CategorySelection) IsEmpty() bool {
	return len(s.names) == 0
}

func (s CategorySelection) Len() int {
	return len(s.names)
}

// Has reports explicit membership.
func (s CategorySelection) Has(category string) bool {
	_, ok := s.names[category]
	return ok
}

// Includes reports whether a record of this category passes the filter.
func (s CategorySelection) Includes(category string) bool {
	return s.IsEmpty() || s.Has(category)
}

// Names returns the selected names sorted.
func (s CategorySelection) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Key is a stable string form, usable as a cache key.
func (s CategorySelection) Key() string {
	return strings.Join(s.Names(), "\x1f")
}

// MarshalJSON encodes the selection as a sorted array of names.
func (s CategorySelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *CategorySelection) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*s = NewCategorySelection(names...)
	return nil
}
