package core

// Filter returns the records whose date lies in interval and whose category
// passes sel, preserving input order. The input slice is not modified.
func Filter(records []Record, interval DateInterval, sel CategorySelection) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !interval.Contains(r.Date) {
			continue
		}
		if !sel.Includes(r.Category) {
			continue
		}
		out = append(out, r)
	}
	return out
}
