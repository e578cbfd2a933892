// This file implements the Strategy Pattern for growth percentages shown next
// to each metric card. The default strategy reproduces fixed placeholder
// values; the prior-period strategy compares against the preceding window.

package core

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// GrowthMode names a registered growth strategy.
type GrowthMode string

const (
	GrowthFixed       GrowthMode = "fixed"
	GrowthPriorPeriod GrowthMode = "prior_period"
)

// Growth holds percentage changes per metric.
type Growth struct {
	Revenue           float64 `json:"revenue"`
	Users             float64 `json:"users"`
	Orders            float64 `json:"orders"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// GrowthCalculator computes growth for the current selection.
// all is the unfiltered snapshot; current is the Metrics of the filtered set.
type GrowthCalculator interface {
	Growth(all []Record, interval DateInterval, sel CategorySelection, current Metrics) Growth
}

// FixedGrowth returns constant placeholder percentages regardless of input.
type FixedGrowth struct{}

func (FixedGrowth) Growth(_ []Record, _ DateInterval, _ CategorySelection, _ Metrics) Growth {
	return Growth{
		Revenue:           12.5,
		Users:             8.2,
		Orders:            15.3,
		AverageOrderValue: 4.7,
	}
}

// PriorPeriodGrowth compares against the immediately preceding period of the
// same length, using the same category selection.
type PriorPeriodGrowth struct{}

func (PriorPeriodGrowth) Growth(all []Record, interval DateInterval, sel CategorySelection, current Metrics) Growth {
	days := interval.Days()
	if days == 0 {
		return Growth{}
	}
	prior := DateInterval{
		Start: interval.Start.AddDays(-days),
		End:   interval.Start.AddDays(-1),
	}
	prev, _ := Aggregate(Filter(all, prior, sel))

	return Growth{
		Revenue:           percentChange(current.TotalRevenue, prev.TotalRevenue),
		Users:             percentChange(decimal.NewFromInt(current.TotalUsers), decimal.NewFromInt(prev.TotalUsers)),
		Orders:            percentChange(decimal.NewFromInt(current.TotalOrders), decimal.NewFromInt(prev.TotalOrders)),
		AverageOrderValue: percentChange(current.AverageOrderValue, prev.AverageOrderValue),
	}
}

// percentChange is zero when the previous value is zero.
func percentChange(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

var growthStrategies = map[GrowthMode]GrowthCalculator{
	GrowthFixed:       FixedGrowth{},
	GrowthPriorPeriod: PriorPeriodGrowth{},
}

// GetGrowthCalculator returns the strategy registered for mode.
// An empty mode selects GrowthFixed.
func GetGrowthCalculator(mode GrowthMode) (GrowthCalculator, error) {
	if mode == "" {
		mode = GrowthFixed
	}
	calc, ok := growthStrategies[mode]
	if !ok {
		return nil, fmt.Errorf("unknown growth mode: %s", mode)
	}
	return calc, nil
}

// RegisterGrowthCalculator adds or replaces the strategy for mode.
func RegisterGrowthCalculator(mode GrowthMode, calc GrowthCalculator) {
	growthStrategies[mode] = calc
}

// GrowthModes lists registered modes in sorted order.
func GrowthModes() []GrowthMode {
	out := make([]GrowthMode, 0, len(growthStrategies))
	for m := range growthStrategies {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}
