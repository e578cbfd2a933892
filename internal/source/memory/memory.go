package memory

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pulse/internal/core"
	applog "pulse/internal/log"
	"pulse/internal/source"
)

// RecordsFile is the seed file looked up in the data directory.
const RecordsFile = "records.csv"

var _ source.RecordSource = (*Store)(nil)

// Store is an in-memory record source. Records returns a copy, so callers
// never share the backing slice.
type Store struct {
	mu      sync.Mutex
	records []core.Record
}

// New sanitizes records and stores the valid ones.
func New(records []core.Record) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// NewFromFiles seeds the store from <base>/records.csv, falling back to a
// generated 90-day sample ending at now when the file is missing or empty.
func NewFromFiles(base string, now time.Time) *Store {
	path := filepath.Join(base, RecordsFile)
	if records := readFile(path); len(records) > 0 {
		return New(records)
	}
	slog.Info("No seed records found, generating sample data",
		applog.FieldComponent, applog.ComponentSource,
		"path", path,
		"days", SampleDays)
	rnd := rand.New(rand.NewSource(now.UnixNano()))
	return New(GenerateSample(now, SampleDays, rnd))
}

// Records implements source.RecordSource.
func (s *Store) Records(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.records...), nil
}

func (s *Store) Name() string {
	return "memory"
}

// Replace swaps the whole snapshot and returns the rejected rows.
func (s *Store) Replace(records []core.Record) []core.RowError {
	valid, rejected := core.SanitizeRecords(records)
	logRejected(rejected)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = valid
	return rejected
}

func readFile(path string) []core.Record {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	records, rejected, err := ReadCSV(f)
	if err != nil {
		slog.Warn("Failed to read seed records",
			applog.FieldComponent, applog.ComponentSource,
			"path", path,
			applog.FieldError, err)
		return nil
	}
	logRejected(rejected)
	return records
}

func logRejected(rejected []core.RowError) {
	for _, re := range rejected {
		fields := applog.NewFields().
			WithComponent(applog.ComponentSource).
			WithOperation(applog.OpValidate).
			WithRowError(re)
		slog.Warn("Rejected malformed record", fields.ToSlice()...)
	}
}
