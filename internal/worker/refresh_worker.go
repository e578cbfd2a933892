package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"pulse/internal/amqp"
	applog "pulse/internal/log"
)

// Refresher reloads the dashboard snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshWorker triggers refreshes on a fixed interval and on
// records-refreshed messages. Overlapping runs are skipped.
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
	scheduler *gocron.Scheduler
	logger    *applog.Logger
	throttle  *Throttle

	mu        sync.Mutex
	running   bool
	lastRun   time.Time
	lastErr   error
	runs      int
	skipped   int
	throttled int
}

// Status is a snapshot of the worker's bookkeeping.
type Status struct {
	LastRun   time.Time
	LastErr   error
	Runs      int
	Skipped   int
	Throttled int
}

func NewRefreshWorker(refresher Refresher, interval time.Duration, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// LimitMessages caps message-triggered refreshes at perMinute per source.
// Zero removes the cap.
func (w *RefreshWorker) LimitMessages(perMinute int) {
	if perMinute <= 0 {
		w.throttle = nil
		return
	}
	w.throttle = NewThrottle(perMinute)
}

// Start schedules periodic refreshes. A zero interval disables the schedule.
// The scheduler stops when ctx is done.
func (w *RefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		w.logger.Info("Scheduled refresh disabled")
		return nil
	}

	_, err := w.scheduler.Every(w.interval).WaitForSchedule().Do(func() {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled refresh failed", applog.FieldError, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	w.scheduler.StartAsync()
	w.logger.Info("Scheduled refresh started", "interval", w.interval)

	go func() {
		<-ctx.Done()
		w.logger.Info("Stopping scheduled refresh")
		w.scheduler.Stop()
	}()
	return nil
}

// RunOnce refreshes unless a refresh started by this worker is in flight.
func (w *RefreshWorker) RunOnce(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.skipped++
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Refresh already running, skipping")
		return nil
	}
	w.running = true
	w.mu.Unlock()

	logger := applog.FromContextOr(ctx, w.logger).WithComponent(applog.ComponentWorker)
	start := time.Now()
	err := w.refresher.Refresh(ctx)

	w.mu.Lock()
	w.running = false
	w.lastRun = start
	w.lastErr = err
	w.runs++
	w.mu.Unlock()

	fields := applog.NewFields().WithOperation(applog.OpRefresh).WithError(err)
	logger.DebugContext(ctx, "Refresh finished", append(fields.ToSlice(), applog.FieldDuration, time.Since(start))...)
	return err
}

// HandleRefreshMessage is the AMQP handler. Returning an error requeues the
// message.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RecordsRefreshedMessage) error {
	w.logger.InfoContext(ctx, "Received records refreshed message",
		"id", msg.ID,
		applog.FieldSource, msg.Source,
		applog.FieldRecordsTotal, msg.Records)
	if w.throttle != nil && !w.throttle.Allow(msg.Source) {
		w.mu.Lock()
		w.throttled++
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Refresh message throttled", "id", msg.ID, applog.FieldSource, msg.Source)
		return nil
	}
	if err := w.RunOnce(ctx); err != nil {
		return fmt.Errorf("refresh after message %s: %w", msg.ID, err)
	}
	return nil
}

func (w *RefreshWorker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{LastRun: w.lastRun, LastErr: w.lastErr, Runs: w.runs, Skipped: w.skipped, Throttled: w.throttled}
}
