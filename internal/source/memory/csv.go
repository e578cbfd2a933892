package memory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"pulse/internal/core"
)

// Column names recognised in record files. Matching is case-insensitive and
// column order is free.
const (
	ColDate     = "date"
	ColCategory = "category"
	ColRevenue  = "revenue"
	ColUsers    = "users"
	ColOrders   = "orders"
)

var requiredColumns = []string{ColDate, ColCategory, ColRevenue, ColUsers, ColOrders}

// ReadCSV parses records from r. The first non-comment line is the header.
// Lines starting with '#' and blank lines are skipped. Rows that cannot be
// parsed or fail validation are returned as row errors (row numbers are
// 1-based data rows) and left out of the result.
func ReadCSV(r io.Reader) ([]core.Record, []core.RowError, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		out      []core.Record
		rejected []core.RowError
		row      int
	)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			// The reader has moved past the broken line.
			row++
			rejected = append(rejected, core.RowError{Row: row, Err: err})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if blank(fields) {
			continue
		}
		rec, err := parseRow(fields, cols)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			rejected = append(rejected, core.RowError{Row: row, Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, rejected, nil
}

// WriteCSV writes records with the canonical header.
func WriteCSV(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(requiredColumns); err != nil {
		return err
	}
	for _, r := range records {
		err := cw.Write([]string{
			r.Date.String(),
			r.Category,
			r.Revenue.String(),
			fmt.Sprint(r.Users),
			fmt.Sprint(r.Orders),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected header: missing %s; got %v", strings.Join(missing, ","), header)
	}
	return cols, nil
}

func parseRow(fields []string, cols map[string]int) (core.Record, error) {
	get := func(col string) string {
		i := cols[col]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	date, err := core.ParseDate(get(ColDate))
	if err != nil {
		return core.Record{}, err
	}
	revenue, err := core.ParseRevenue(get(ColRevenue))
	if err != nil {
		return core.Record{}, fmt.Errorf("revenue %q: %w", get(ColRevenue), err)
	}
	users, err := core.ParseCount(get(ColUsers))
	if err != nil {
		return core.Record{}, fmt.Errorf("users %q: %w", get(ColUsers), err)
	}
	orders, err := core.ParseCount(get(ColOrders))
	if err != nil {
		return core.Record{}, fmt.Errorf("orders %q: %w", get(ColOrders), err)
	}
	return core.Record{
		Date:     date,
		Revenue:  revenue,
		Users:    users,
		Orders:   orders,
		Category: get(ColCategory),
	}, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
