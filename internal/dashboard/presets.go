package dashboard

import (
	"fmt"
	"time"

	"pulse/internal/core"
)

// Preset names a quick date range.
type Preset string

const (
	PresetLast7Days  Preset = "last_7_days"
	PresetLast30Days Preset = "last_30_days"
	PresetLast90Days Preset = "last_90_days"
	PresetThisMonth  Preset = "this_month"
	PresetLastMonth  Preset = "last_month"
)

// Presets returns the presets in display order.
func Presets() []Preset {
	return []Preset{PresetLast7Days, PresetLast30Days, PresetThisMonth, PresetLastMonth, PresetLast90Days}
}

// Label is the human name of the preset.
func (p Preset) Label() string {
	switch p {
	case PresetLast7Days:
		return "Last 7 days"
	case PresetLast30Days:
		return "Last 30 days"
	case PresetLast90Days:
		return "Last 90 days"
	case PresetThisMonth:
		return "This month"
	case PresetLastMonth:
		return "Last month"
	}
	return string(p)
}

// ResolvePreset turns p into a concrete interval relative to now. The
// trailing-day presets cover N days ending today; month presets cover whole
// calendar months.
func ResolvePreset(p Preset, now time.Time) (core.DateInterval, error) {
	today := core.DateOf(now)
	switch p {
	case PresetLast7Days:
		return trailing(today, 7), nil
	case PresetLast30Days:
		return trailing(today, 30), nil
	case PresetLast90Days:
		return trailing(today, 90), nil
	case PresetThisMonth:
		return monthOf(today.Year(), today.Month()), nil
	case PresetLastMonth:
		return monthOf(today.Year(), today.Month()-1), nil
	}
	return core.DateInterval{}, fmt.Errorf("unknown preset %q", p)
}

func trailing(today core.Date, days int) core.DateInterval {
	return core.DateInterval{Start: today.AddDays(-(days - 1)), End: today}
}

// monthOf normalizes month overflow, so month 0 is December of year-1.
func monthOf(year int, month time.Month) core.DateInterval {
	first := core.DateOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	last := core.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
	return core.DateInterval{Start: first, End: last}
}
