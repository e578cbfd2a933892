// Package dashboard holds one dashboard instance: the current record
// snapshot, the user's selection and the derived view.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"pulse/internal/cache"
	"pulse/internal/core"
	applog "pulse/internal/log"
	"pulse/internal/source"
)

// Dashboard is safe for concurrent use. Every selection or snapshot change
// recomputes the view eagerly and notifies subscribers.
type Dashboard struct {
	src    source.RecordSource
	growth core.GrowthCalculator
	views  cache.Cache[View]
	logger *applog.Logger
	now    func() time.Time
	window int

	group singleflight.Group

	mu        sync.RWMutex
	snapshot  Snapshot
	selection Selection
	view      View
	loading   bool
	lastErr   error

	subMu   sync.Mutex
	subs    map[int]func(View)
	nextSub int
}

type Option func(*Dashboard)

// WithGrowth sets the growth strategy. The default is core.FixedGrowth.
func WithGrowth(g core.GrowthCalculator) Option {
	return func(d *Dashboard) { d.growth = g }
}

// WithCache memoizes views per snapshot and selection.
func WithCache(c cache.Cache[View]) Option {
	return func(d *Dashboard) { d.views = c }
}

func WithLogger(l *applog.Logger) Option {
	return func(d *Dashboard) { d.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithWindowDays sets the length of the initial trailing window.
func WithWindowDays(days int) Option {
	return func(d *Dashboard) { d.window = days }
}

// New creates a dashboard over src with an empty snapshot. Call Refresh to
// load records.
func New(src source.RecordSource, opts ...Option) *Dashboard {
	d := &Dashboard{
		src:    src,
		growth: core.FixedGrowth{},
		now:    time.Now,
		window: DefaultWindowDays,
		subs:   make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = applog.New(applog.DefaultConfig())
	}
	d.logger = d.logger.WithComponent(applog.ComponentDashboard)

	d.selection = NewSelection(d.now(), d.window)
	d.snapshot = Snapshot{Source: src.Name(), Records: []core.Record{}}
	d.view = d.recomputeLocked()
	return d
}

// Refresh reads a new snapshot from the source. Concurrent calls share one
// fetch. On failure the previous snapshot stays in place and the error is
// both returned and exposed as View.Err.
func (d *Dashboard) Refresh(ctx context.Context) error {
	_, err, _ := d.group.Do("refresh", func() (interface{}, error) {
		return nil, d.refresh(ctx)
	})
	return err
}

func (d *Dashboard) refresh(ctx context.Context) error {
	logger := applog.FromContextOr(ctx, d.logger).WithComponent(applog.ComponentDashboard)
	d.update(func() { d.loading = true })

	start := d.now()
	records, err := d.src.Records(ctx)
	if err != nil {
		err = fmt.Errorf("refresh from %s: %w", d.src.Name(), err)
		d.update(func() {
			d.loading = false
			d.lastErr = err
		})
		fields := applog.NewFields().WithOperation(applog.OpRefresh).WithError(err)
		logger.ErrorContext(ctx, "Refresh failed", append(fields.ToSlice(), applog.FieldSource, d.src.Name())...)
		return err
	}

	snap := Snapshot{
		ID:          uuid.NewString(),
		Source:      d.src.Name(),
		Records:     records,
		Categories:  core.Categories(records),
		RefreshedAt: d.now(),
	}
	if snap.Records == nil {
		snap.Records = []core.Record{}
	}
	if d.views != nil {
		d.views.Purge()
	}
	d.update(func() {
		d.snapshot = snap
		d.loading = false
		d.lastErr = nil
	})

	fields := applog.NewFields().
		WithOperation(applog.OpRefresh).
		WithSnapshot(snap.Source, snap.ID, len(records))
	logger.InfoContext(ctx, "Snapshot refreshed", append(fields.ToSlice(), applog.FieldDuration, d.now().Sub(start))...)
	return nil
}

// SetDateInterval replaces the date interval. It is not validated; an
// inverted interval yields an empty view.
func (d *Dashboard) SetDateInterval(iv core.DateInterval) {
	d.update(func() { d.selection.DateInterval = iv })
	d.logSelection()
}

func (d *Dashboard) SetDateRange(start, end core.Date) {
	d.SetDateInterval(core.DateInterval{Start: start, End: end})
}

// SetCategories replaces the category selection. An empty selection means
// all categories.
func (d *Dashboard) SetCategories(sel core.CategorySelection) {
	d.update(func() { d.selection.Categories = sel })
	d.logSelection()
}

// ApplyPreset resolves p against the dashboard clock and sets the interval.
func (d *Dashboard) ApplyPreset(p Preset) error {
	iv, err := ResolvePreset(p, d.now())
	if err != nil {
		return err
	}
	d.SetDateInterval(iv)
	return nil
}

// Selection returns the current selection.
func (d *Dashboard) Selection() Selection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selection
}

// Snapshot returns the current snapshot.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

// View returns the most recently computed view.
func (d *Dashboard) View() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

// Subscribe registers fn to receive every new view and returns a function
// that removes it. fn runs on the goroutine that caused the change.
func (d *Dashboard) Subscribe(fn func(View)) (unsubscribe func()) {
	d.subMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.subMu.Unlock()

	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}

// update applies mutate, recomputes the view and notifies subscribers
// outside the lock.
func (d *Dashboard) update(mutate func()) {
	d.mu.Lock()
	mutate()
	d.view = d.recomputeLocked()
	v := d.view
	d.mu.Unlock()

	d.subMu.Lock()
	fns := make([]func(View), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (d *Dashboard) recomputeLocked() View {
	var v View
	key := d.snapshot.ID + "|" + d.selection.Key()
	cached := false
	if d.views != nil && d.snapshot.ID != "" {
		v, cached = d.views.Get(key)
	}
	if !cached {
		v = computeView(d.snapshot, d.selection, d.growth)
		if d.views != nil && d.snapshot.ID != "" {
			d.views.Set(key, v)
		}
	}
	v.Loading = d.loading
	v.Err = d.lastErr
	return v
}

func (d *Dashboard) logSelection() {
	d.mu.RLock()
	sel := d.selection
	shown := len(d.view.Filtered)
	d.mu.RUnlock()

	fields := applog.NewFields().
		WithOperation(applog.OpSelect).
		WithSelection(sel.DateInterval, sel.Categories)
	d.logger.Debug("Selection changed", append(fields.ToSlice(), applog.FieldRecordsFiltered, shown)...)
}
