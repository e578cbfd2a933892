package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pulse/internal/amqp"
	"pulse/internal/backend"
	"pulse/internal/cache"
	"pulse/internal/cli"
	"pulse/internal/config"
	"pulse/internal/core"
	"pulse/internal/dashboard"
	applog "pulse/internal/log"
	"pulse/internal/render"
	"pulse/internal/worker"
)

type options struct {
	from       string
	to         string
	preset     string
	categories string
	format     string
	watch      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.from, "from", "", "start date (YYYY-MM-DD)")
	flag.StringVar(&opts.to, "to", "", "end date (YYYY-MM-DD)")
	flag.StringVar(&opts.preset, "preset", "", "date preset: last_7_days, last_30_days, last_90_days, this_month, last_month")
	flag.StringVar(&opts.categories, "category", "", "comma separated categories (empty means all)")
	flag.StringVar(&opts.format, "format", "text", "output format: text or json")
	flag.BoolVar(&opts.watch, "watch", false, "keep running and re-render on every refresh")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)
	ctx = applog.WithLogger(ctx, logger)
	logger.Info("Starting pulse",
		applog.FieldOperation, applog.OpStartup,
		"backend", cfg.DataBackend,
		"watch", opts.watch)

	if err := run(ctx, cfg, logger, opts, os.Stdout); err != nil {
		logger.Error("pulse failed", applog.FieldError, err)
		os.Exit(1)
	}
	if opts.watch {
		cli.WaitForShutdown(ctx, done)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts options, out io.Writer) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateSource(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close source", applog.FieldError, err)
		}
	}()

	growth, err := core.GetGrowthCalculator(core.GrowthMode(cfg.GrowthMode))
	if err != nil {
		return err
	}

	views := cache.NewLRUCache[dashboard.View](cfg.CacheSize, cfg.CacheTTL)
	if cfg.CacheTTL > 0 {
		manager := cache.NewManager(logger)
		manager.Register(views)
		manager.StartCleanup(cfg.CacheTTL)
		defer manager.Stop()
	}

	d := dashboard.New(res.Source,
		dashboard.WithGrowth(growth),
		dashboard.WithCache(views),
		dashboard.WithLogger(logger),
		dashboard.WithWindowDays(cfg.DefaultWindowDays))

	if err := applySelection(d, opts); err != nil {
		return err
	}

	if !opts.watch {
		if err := d.Refresh(ctx); err != nil {
			return err
		}
		return render.Render(out, format, d.View())
	}
	return watch(ctx, cfg, logger, d, format, out)
}

func applySelection(d *dashboard.Dashboard, opts options) error {
	if opts.preset != "" {
		if err := d.ApplyPreset(dashboard.Preset(opts.preset)); err != nil {
			return err
		}
	}
	if opts.from != "" || opts.to != "" {
		iv := d.Selection().DateInterval
		if opts.from != "" {
			start, err := core.ParseDate(opts.from)
			if err != nil {
				return fmt.Errorf("-from: %w", err)
			}
			iv.Start = start
		}
		if opts.to != "" {
			end, err := core.ParseDate(opts.to)
			if err != nil {
				return fmt.Errorf("-to: %w", err)
			}
			iv.End = end
		}
		d.SetDateInterval(iv)
	}
	if opts.categories != "" {
		d.SetCategories(core.NewCategorySelection(strings.Split(opts.categories, ",")...))
	}
	return nil
}

// watch refreshes on schedule and on AMQP signals, re-rendering every
// settled view until ctx is cancelled.
func watch(ctx context.Context, cfg *config.Config, logger *applog.Logger, d *dashboard.Dashboard, format render.Format, out io.Writer) error {
	var mu sync.Mutex
	unsubscribe := d.Subscribe(func(v dashboard.View) {
		if v.Loading {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if err := render.Render(out, format, v); err != nil {
			logger.WithComponent(applog.ComponentRender).Error("Render failed",
				applog.FieldOperation, applog.OpRender,
				applog.FieldError, err)
		}
	})
	defer unsubscribe()

	w := worker.NewRefreshWorker(d, cfg.RefreshInterval, logger)
	w.LimitMessages(cfg.RefreshMessageLimit)
	if err := w.RunOnce(ctx); err != nil {
		logger.Warn("Initial refresh failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without refresh signals", applog.FieldError, err)
		} else {
			defer client.Close()
			g.Go(func() error {
				err := client.ConsumeRecordsRefreshed(gctx, w.HandleRefreshMessage)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	}

	return g.Wait()
}
