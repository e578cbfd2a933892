package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/cache"
	"pulse/internal/core"
	applog "pulse/internal/log"
	"pulse/internal/source"
)

var testNow = time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)

type fakeSource struct {
	mu      sync.Mutex
	records []core.Record
	err     error
	calls   atomic.Int32
	block   chan struct{}
}

func (f *fakeSource) Records(ctx context.Context) ([]core.Record, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]core.Record(nil), f.records...), nil
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) set(records []core.Record, err error) {
	f.mu.Lock()
	f.records, f.err = records, err
	f.mu.Unlock()
}

func rec(date, revenue string, users, orders int64, category string) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Record{Date: d, Revenue: decimal.RequireFromString(revenue), Users: users, Orders: orders, Category: category}
}

func date(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func newTestDashboard(src *fakeSource, opts ...Option) *Dashboard {
	base := []Option{WithClock(func() time.Time { return testNow }), WithLogger(quietLogger())}
	return New(src, append(base, opts...)...)
}

func TestNew_DefaultSelection(t *testing.T) {
	d := newTestDashboard(&fakeSource{})

	sel := d.Selection()
	assert.Equal(t, "2023-12-12", sel.DateInterval.Start.String())
	assert.Equal(t, "2024-01-10", sel.DateInterval.End.String())
	assert.True(t, sel.Categories.IsEmpty())

	v := d.View()
	assert.Empty(t, v.SnapshotID)
	assert.NotNil(t, v.Filtered)
	assert.NotNil(t, v.Rollups)
	assert.NotNil(t, v.Categories)
	assert.True(t, v.Metrics.TotalRevenue.IsZero())
}

func TestRefresh_LoadsSnapshotAndRecomputes(t *testing.T) {
	src := &fakeSource{records: []core.Record{
		rec("2024-01-01", "100", 10, 2, "A"),
		rec("2024-01-05", "200", 20, 0, "B"),
		rec("2023-11-01", "999", 1, 1, "C"),
	}}
	d := newTestDashboard(src)

	require.NoError(t, d.Refresh(context.Background()))
	v := d.View()
	assert.NotEmpty(t, v.SnapshotID)
	assert.Equal(t, "fake", v.Source)
	assert.Equal(t, testNow, v.RefreshedAt)
	assert.Len(t, v.Filtered, 2)
	assert.True(t, v.Metrics.TotalRevenue.Equal(decimal.NewFromInt(300)))
	// categories come from the unfiltered snapshot
	assert.Equal(t, []string{"A", "B", "C"}, v.Categories)
	assert.Equal(t, "Showing 2 of 3 records", v.Status.Summary())
	assert.Equal(t, core.Growth{Revenue: 12.5, Users: 8.2, Orders: 15.3, AverageOrderValue: 4.7}, v.Growth)
	assert.Len(t, v.Daily, 2)
	assert.False(t, v.Loading)
	assert.NoError(t, v.Err)
}

func TestRefresh_LogsThroughContextLogger(t *testing.T) {
	src := source.Func{
		SourceName: "inline",
		Fetch: func(ctx context.Context) ([]core.Record, error) {
			return []core.Record{rec("2024-01-05", "10", 1, 1, "A")}, nil
		},
	}
	d := New(src, WithClock(func() time.Time { return testNow }), WithLogger(quietLogger()))

	var buf bytes.Buffer
	ctx := applog.WithLogger(context.Background(), applog.New(applog.Config{Output: &buf}))
	require.NoError(t, d.Refresh(ctx))

	out := buf.String()
	assert.Contains(t, out, "Snapshot refreshed")
	assert.Contains(t, out, "component=dashboard")
	assert.Contains(t, out, "source=inline")
	assert.Equal(t, "inline", d.View().Source)
}

func TestRefresh_FuncSourceError(t *testing.T) {
	boom := errors.New("unreachable")
	src := source.Func{
		SourceName: "inline",
		Fetch:      func(ctx context.Context) ([]core.Record, error) { return nil, boom },
	}
	d := New(src, WithClock(func() time.Time { return testNow }), WithLogger(quietLogger()))

	err := d.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, d.View().Err, boom)
	assert.Empty(t, d.View().SnapshotID)
}

func TestRefresh_NewSnapshotIDEachTime(t *testing.T) {
	d := newTestDashboard(&fakeSource{})
	require.NoError(t, d.Refresh(context.Background()))
	first := d.View().SnapshotID
	require.NoError(t, d.Refresh(context.Background()))
	assert.NotEqual(t, first, d.View().SnapshotID)
}

func TestRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{records: []core.Record{rec("2024-01-05", "10", 1, 1, "A")}}
	d := newTestDashboard(src)
	require.NoError(t, d.Refresh(context.Background()))
	before := d.View()

	boom := errors.New("connection reset")
	src.set(nil, boom)
	err := d.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "refresh from fake")

	after := d.View()
	assert.Equal(t, before.SnapshotID, after.SnapshotID)
	assert.Len(t, after.Filtered, 1)
	assert.ErrorIs(t, after.Err, boom)

	src.set([]core.Record{rec("2024-01-05", "10", 1, 1, "A")}, nil)
	require.NoError(t, d.Refresh(context.Background()))
	assert.NoError(t, d.View().Err)
}

func TestRefresh_ConcurrentCallsShareFetch(t *testing.T) {
	src := &fakeSource{block: make(chan struct{})}
	d := newTestDashboard(src)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Refresh(context.Background()))
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return d.View().Loading }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(src.block)
	wg.Wait()

	assert.LessOrEqual(t, src.calls.Load(), int32(5))
	assert.False(t, d.View().Loading)
}

func TestSelectionChanges(t *testing.T) {
	src := &fakeSource{records: []core.Record{
		rec("2024-01-01", "100", 10, 2, "A"),
		rec("2024-01-05", "200", 20, 0, "B"),
	}}
	d := newTestDashboard(src)
	require.NoError(t, d.Refresh(context.Background()))

	t.Run("date range", func(t *testing.T) {
		d.SetCategories(core.NewCategorySelection())
		d.SetDateRange(date("2024-01-01"), date("2024-01-03"))
		v := d.View()
		require.Len(t, v.Filtered, 1)
		assert.Equal(t, "A", v.Filtered[0].Category)
		assert.True(t, v.Metrics.AverageOrderValue.Equal(decimal.NewFromInt(50)))
	})

	t.Run("category", func(t *testing.T) {
		d.SetDateRange(date("2024-01-01"), date("2024-01-10"))
		d.SetCategories(core.NewCategorySelection("B"))
		v := d.View()
		require.Len(t, v.Filtered, 1)
		assert.Equal(t, "B", v.Filtered[0].Category)
		assert.True(t, v.Metrics.AverageOrderValue.IsZero())
		assert.True(t, v.Status.CategoryFilterActive)
	})

	t.Run("inverted interval is empty", func(t *testing.T) {
		d.SetCategories(core.NewCategorySelection())
		d.SetDateInterval(core.DateInterval{Start: date("2024-01-10"), End: date("2024-01-01")})
		v := d.View()
		assert.Empty(t, v.Filtered)
		assert.Empty(t, v.Rollups)
		assert.True(t, v.Metrics.TotalRevenue.IsZero())
		// the stored selection is kept as given
		assert.Equal(t, "2024-01-10", d.Selection().DateInterval.Start.String())
	})
}

func TestApplyPreset(t *testing.T) {
	d := newTestDashboard(&fakeSource{})
	require.NoError(t, d.ApplyPreset(PresetLastMonth))
	iv := d.Selection().DateInterval
	assert.Equal(t, "2023-12-01", iv.Start.String())
	assert.Equal(t, "2023-12-31", iv.End.String())

	assert.Error(t, d.ApplyPreset("next_week"))
	assert.Equal(t, iv, d.Selection().DateInterval)
}

func TestSubscribe(t *testing.T) {
	src := &fakeSource{records: []core.Record{rec("2024-01-05", "10", 1, 1, "A")}}
	d := newTestDashboard(src)

	var views []View
	unsubscribe := d.Subscribe(func(v View) { views = append(views, v) })

	require.NoError(t, d.Refresh(context.Background()))
	// loading, then loaded
	require.Len(t, views, 2)
	assert.True(t, views[0].Loading)
	assert.False(t, views[1].Loading)
	assert.Len(t, views[1].Filtered, 1)

	d.SetCategories(core.NewCategorySelection("Z"))
	require.Len(t, views, 3)
	assert.Empty(t, views[2].Filtered)

	unsubscribe()
	d.SetCategories(core.NewCategorySelection())
	assert.Len(t, views, 3)
}

func TestPriorPeriodGrowthOption(t *testing.T) {
	src := &fakeSource{records: []core.Record{
		rec("2024-01-01", "100", 10, 4, "A"),
		rec("2024-01-04", "150", 10, 4, "A"),
	}}
	d := newTestDashboard(src, WithGrowth(core.PriorPeriodGrowth{}))
	require.NoError(t, d.Refresh(context.Background()))
	d.SetDateRange(date("2024-01-04"), date("2024-01-06"))

	assert.Equal(t, 50.0, d.View().Growth.Revenue)
}

func TestViewCache(t *testing.T) {
	src := &fakeSource{records: []core.Record{rec("2024-01-05", "10", 1, 1, "A")}}
	views := cache.NewLRUCache[View](8, time.Minute)
	d := newTestDashboard(src, WithCache(views))
	require.NoError(t, d.Refresh(context.Background()))

	initial := d.Selection()
	d.SetCategories(core.NewCategorySelection("A"))
	d.SetCategories(initial.Categories)

	st := views.Stats()
	assert.Equal(t, 2, st.Size)
	assert.GreaterOrEqual(t, st.Hits, uint64(1))

	// a refresh invalidates memoized views of the old snapshot
	require.NoError(t, d.Refresh(context.Background()))
	assert.Equal(t, 1, views.Size())
}
