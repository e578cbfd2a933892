package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pulse/internal/amqp"
	"pulse/internal/cli"
	"pulse/internal/config"
	applog "pulse/internal/log"
	"pulse/internal/source/memory"
	"pulse/internal/storage"
)

func main() {
	file := flag.String("file", "", "CSV file with date,category,revenue,users,orders columns")
	replace := flag.Bool("replace", false, "replace all stored records instead of appending")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentStorage)

	if *file == "" {
		logger.Error("missing -file")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = applog.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger, *file, *replace); err != nil {
		logger.Error("Import failed", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, path string, replace bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, rejected, err := memory.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, re := range rejected {
		fields := applog.NewFields().WithOperation(applog.OpValidate).WithRowError(re)
		logger.Warn("Skipping malformed row", fields.ToSlice()...)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if replace {
		err = repo.ReplaceRecords(ctx, records)
	} else {
		err = repo.InsertRecords(ctx, records)
	}
	if err != nil {
		return fmt.Errorf("store records: %w", err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	version, _, err := storage.SchemaVersion(cfg.SQLiteDBPath)
	if err != nil {
		logger.Warn("Could not read schema version", applog.FieldError, err)
	}
	logger.Info("Records imported",
		applog.FieldOperation, applog.OpImport,
		"schema_version", version,
		"imported", len(records),
		applog.FieldRecordsRejected, len(rejected),
		applog.FieldRecordsTotal, total,
		"replace", replace)

	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect AMQP: %w", err)
	}
	defer client.Close()
	return client.PublishRecordsRefreshed(ctx, repo.Name(), int(total))
}
