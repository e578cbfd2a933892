package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "pulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(date, revenue string, users, orders int64, category string) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Record{Date: d, Revenue: decimal.RequireFromString(revenue), Users: users, Orders: orders, Category: category}
}

func TestSQLiteRepository_InsertAndRead(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertRecords(ctx, []core.Record{
		record("2024-01-03", "30.10", 3, 1, "Books"),
		record("2024-01-01", "1234.56", 10, 4, "Electronics"),
		record("2024-01-03", "5", 1, 0, "Audio"),
	}))

	recs, err := repo.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "2024-01-01", recs[0].Date.String())
	assert.True(t, recs[0].Revenue.Equal(decimal.RequireFromString("1234.56")))
	// same date keeps insertion order
	assert.Equal(t, "Books", recs[1].Category)
	assert.Equal(t, "Audio", recs[2].Category)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cats, err := repo.DistinctCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Audio", "Books", "Electronics"}, cats)
	assert.Equal(t, "sqlite", repo.Name())
}

func TestSQLiteRepository_InsertIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bad := record("2024-01-02", "1", 1, 1, "")
	err := repo.InsertRecords(ctx, []core.Record{record("2024-01-01", "1", 1, 1, "A"), bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteRepository_ReplaceRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertRecords(ctx, []core.Record{record("2024-01-01", "1", 1, 1, "Old")}))
	require.NoError(t, repo.ReplaceRecords(ctx, []core.Record{
		record("2024-02-01", "2", 2, 2, "New"),
		record("2024-02-02", "3", 3, 3, "New"),
	}))

	recs, err := repo.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, "New", r.Category)
	}
}

func TestSQLiteRepository_EmptyDatabase(t *testing.T) {
	repo := newTestRepo(t)
	recs, err := repo.Records(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestSQLiteRepository_ReopenRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.InsertRecords(context.Background(), []core.Record{record("2024-01-01", "1", 1, 1, "A")}))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.db")

	v, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, RunMigrations(path))
	v, dirty, err = SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}
