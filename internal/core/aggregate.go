package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

type (
	// Metrics is the scalar summary of a record set.
	Metrics struct {
		TotalRevenue      decimal.Decimal `json:"total_revenue"`
		TotalUsers        int64           `json:"total_users"`
		TotalOrders       int64           `json:"total_orders"`
		AverageOrderValue decimal.Decimal `json:"average_order_value"`
	}

	// CategoryRollup holds per-category sums.
	CategoryRollup struct {
		Category string          `json:"category"`
		Revenue  decimal.Decimal `json:"revenue"`
		Orders   int64           `json:"orders"`
		Users    int64           `json:"users"`
	}

	// DailyPoint holds the sums of one calendar day.
	DailyPoint struct {
		Date    Date            `json:"date"`
		Revenue decimal.Decimal `json:"revenue"`
		Users   int64           `json:"users"`
		Orders  int64           `json:"orders"`
	}
)

// Aggregate reduces records to totals and per-category rollups.
// Rollups follow the order in which each category first appears; a category
// absent from records gets no entry. Average order value is zero when there
// are no orders.
func Aggregate(records []Record) (Metrics, []CategoryRollup) {
	m := Metrics{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	rollups := make([]CategoryRollup, 0)
	index := make(map[string]int)

	for _, r := range records {
		m.TotalRevenue = m.TotalRevenue.Add(r.Revenue)
		m.TotalUsers += r.Users
		m.TotalOrders += r.Orders

		i, ok := index[r.Category]
		if !ok {
			i = len(rollups)
			index[r.Category] = i
			rollups = append(rollups, CategoryRollup{Category: r.Category, Revenue: decimal.Zero})
		}
		rollups[i].Revenue = rollups[i].Revenue.Add(r.Revenue)
		rollups[i].Orders += r.Orders
		rollups[i].Users += r.Users
	}

	if m.TotalOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue.Div(decimal.NewFromInt(m.TotalOrders))
	}
	return m, rollups
}

// Categories returns the distinct category names of records, sorted.
// It is meant for the unfiltered collection so that a selector can offer
// categories the current filter excludes.
func Categories(records []Record) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// DailySeries sums records per day in chronological order.
func DailySeries(records []Record) []DailyPoint {
	byDay := make(map[string]*DailyPoint)
	for _, r := range records {
		key := r.Date.String()
		p, ok := byDay[key]
		if !ok {
			p = &DailyPoint{Date: r.Date, Revenue: decimal.Zero}
			byDay[key] = p
		}
		p.Revenue = p.Revenue.Add(r.Revenue)
		p.Users += r.Users
		p.Orders += r.Orders
	}

	out := make([]DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
