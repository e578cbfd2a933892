package core

import "fmt"

// RowError reports a record rejected at the source boundary.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// SanitizeRecords keeps valid records in order and reports the rest.
// Row numbers are zero-based positions in the input.
func SanitizeRecords(records []Record) ([]Record, []RowError) {
	out := make([]Record, 0, len(records))
	var rejected []RowError
	for i, r := range records {
		if err := r.Validate(); err != nil {
			rejected = append(rejected, RowError{Row: i, Err: err})
			continue
		}
		out = append(out, r)
	}
	return out, rejected
}
