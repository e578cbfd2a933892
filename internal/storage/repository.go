package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"pulse/internal/core"
	applog "pulse/internal/log"
	"pulse/internal/source"
)

var _ source.RecordSource = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Name() string {
	return "sqlite"
}

// Records implements source.RecordSource. Rows are returned ordered by date
// then insertion; rows that no longer validate are logged and skipped.
func (r *SQLiteRepository) Records(ctx context.Context) ([]core.Record, error) {
	rows, err := r.queries.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			fields := applog.NewFields().
				WithComponent(applog.ComponentStorage).
				WithOperation(applog.OpValidate).
				WithError(err)
			slog.WarnContext(ctx, "Skipping invalid stored record", append(fields.ToSlice(), "id", row.ID)...)
			continue
		}
		out = append(out, rec)
	}
	slog.DebugContext(ctx, "Read stored records",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpRead,
		applog.FieldRecordsTotal, len(out))
	return out, nil
}

// InsertRecords validates and appends records in a single transaction. Any
// invalid record aborts the whole batch.
func (r *SQLiteRepository) InsertRecords(ctx context.Context, records []core.Record) error {
	return r.inTx(ctx, func(q *Queries) error {
		return insertAll(ctx, q, records)
	})
}

// ReplaceRecords atomically swaps the stored snapshot for records.
func (r *SQLiteRepository) ReplaceRecords(ctx context.Context, records []core.Record) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllRecords(ctx); err != nil {
			return fmt.Errorf("delete records: %w", err)
		}
		return insertAll(ctx, q, records)
	})
}

// DistinctCategories returns the stored categories in ascending order.
func (r *SQLiteRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, q *Queries, records []core.Record) error {
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return core.RowError{Row: i + 1, Err: err}
		}
		err := q.CreateRecord(ctx, CreateRecordParams{
			Date:     rec.Date.String(),
			Category: rec.Category,
			Revenue:  rec.Revenue.String(),
			Users:    rec.Users,
			Orders:   rec.Orders,
		})
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i+1, err)
		}
	}
	return nil
}

func fromRow(row RecordRow) (core.Record, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Record{}, err
	}
	revenue, err := decimal.NewFromString(row.Revenue)
	if err != nil {
		return core.Record{}, fmt.Errorf("revenue %q: %w", row.Revenue, err)
	}
	return core.Record{
		Date:     date,
		Revenue:  revenue,
		Users:    row.Users,
		Orders:   row.Orders,
		Category: row.Category,
	}, nil
}
