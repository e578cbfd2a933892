package google

import (
	"fmt"
	"strings"
	"time"

	"pulse/internal/core"
)

var headerNames = []string{"Date", "Category", "Revenue", "Users", "Orders"}

// Sheets may render dates with the locale's layout.
var dateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006"}

// parseRecords converts a values matrix (as returned by the Sheets API) into
// records. values[0] must carry the Date, Category, Revenue, Users and Orders
// headers in any order. Row numbers in the returned errors are 1-based data
// rows.
func parseRecords(values [][]interface{}) ([]core.Record, []core.RowError, error) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	headers := toStrings(values[0])
	cols := make(map[string]int, len(headerNames))
	var missing []string
	for _, h := range headerNames {
		i := indexOf(headers, h)
		if i == -1 {
			missing = append(missing, h)
		}
		cols[h] = i
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var (
		out      []core.Record
		rejected []core.RowError
	)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isEmpty(row) {
			continue
		}
		rec, err := parseRow(row, cols)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			rejected = append(rejected, core.RowError{Row: i, Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, rejected, nil
}

func parseRow(row []string, cols map[string]int) (core.Record, error) {
	date, err := parseSheetDate(safeGet(row, cols["Date"]))
	if err != nil {
		return core.Record{}, err
	}
	revenue, err := core.ParseRevenue(safeGet(row, cols["Revenue"]))
	if err != nil {
		return core.Record{}, fmt.Errorf("revenue: %w", err)
	}
	users, err := core.ParseCount(safeGet(row, cols["Users"]))
	if err != nil {
		return core.Record{}, fmt.Errorf("users: %w", err)
	}
	orders, err := core.ParseCount(safeGet(row, cols["Orders"]))
	if err != nil {
		return core.Record{}, fmt.Errorf("orders: %w", err)
	}
	return core.Record{
		Date:     date,
		Revenue:  revenue,
		Users:    users,
		Orders:   orders,
		Category: safeGet(row, cols["Category"]),
	}, nil
}

func parseSheetDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("invalid date %q", s)
}

func isEmpty(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
