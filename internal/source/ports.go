// Package source defines the record-source port the dashboard reads from.
// Adapters live in subpackages (memory, google) and in internal/storage.
package source

import (
	"context"

	"pulse/internal/core"
)

// RecordSource yields a full, immutable snapshot of records per call.
// Implementations reject malformed rows before returning.
type RecordSource interface {
	Records(ctx context.Context) ([]core.Record, error)
	Name() string
}

// Func adapts a plain function to RecordSource.
type Func struct {
	SourceName string
	Fetch      func(ctx context.Context) ([]core.Record, error)
}

func (f Func) Records(ctx context.Context) ([]core.Record, error) {
	return f.Fetch(ctx)
}

func (f Func) Name() string {
	return f.SourceName
}
