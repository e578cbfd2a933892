package backend

import (
	"context"

	"pulse/internal/source"
)

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error

// SourceResult is a ready record source plus its cleanup, which may be nil.
type SourceResult struct {
	Source  source.RecordSource
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *SourceResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates record sources based on configuration.
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*SourceResult, error)
}

// Config holds configuration for source creation.
type Config struct {
	Type BackendType

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory
	DataDirectory string
}

// BackendType names a record source implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
