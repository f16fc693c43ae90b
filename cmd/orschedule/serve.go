package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/joseph-ayodele/or-schedule/internal/async"
	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/httpapi"
	"github.com/joseph-ayodele/or-schedule/internal/ingest"
	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
	"github.com/joseph-ayodele/or-schedule/internal/server"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the gRPC and HTTP servers, the worker queue and the optional directory watcher",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, slog.Default())
		},
	}
}

func serve(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	var (
		jobs    repository.ParseJobRepository
		entries repository.ScheduleEntryRepository
	)
	if cfg.Database.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
			return fmt.Errorf("database health: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("serve.db.ok", "dialect", db.Dialect)
		jobs = repository.NewParseJobRepository(db, logger)
		entries = repository.NewScheduleEntryRepository(db, logger)
	} else {
		logger.Warn("serve.db.disabled", "reason", "DB_URL is empty; jobs are not persisted")
	}

	proc := pipeline.NewProcessor(logger, pipeline.Config{
		OutputDir:         cfg.Worker.OutputDir,
		Facilities:        cfg.Parser.Facilities,
		LegacyWorklistPop: cfg.Parser.LegacyWorklistPop,
	}, newExtractor(cfg, logger), jobs, entries)

	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Worker.Workers),
		async.WithQueueSize(cfg.Worker.QueueSize),
		async.WithProcessTimeout(cfg.Worker.ProcessTimeout),
	)

	if cfg.Worker.WatchDir != "" {
		submit := ingest.SubmitFunc(func(ctx context.Context, path string) (uuid.UUID, error) {
			id, err := proc.Enqueued(ctx, path)
			if err != nil {
				return uuid.Nil, err
			}
			ctx, reqID := common.EnsureRequestID(ctx)
			return id, queue.Enqueue(ctx, async.Job{JobID: id, Path: path, SubmittedAt: time.Now(), RequestID: reqID})
		})
		ing := ingest.NewFSIngestor(submit, logger)
		go func() {
			err := ing.Watch(ctx, ingest.WatchConfig{Roots: []string{cfg.Worker.WatchDir}, InitialScan: true})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("serve.watch.failed", "dir", cfg.Worker.WatchDir, "error", err)
			}
		}()
		logger.Info("serve.watch.started", "dir", cfg.Worker.WatchDir)
	}

	grpcServer, hs := server.NewGRPCServer(server.NewScheduleService(proc, jobs, queue, logger), logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		queue.Shutdown(context.Background())
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("serve.grpc.listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	app := httpapi.NewApp(proc, jobs, logger)
	if cfg.Server.HTTPAddr != "" {
		go func() {
			logger.Info("serve.http.listening", "addr", cfg.Server.HTTPAddr)
			if err := app.Listen(cfg.Server.HTTPAddr); err != nil {
				errCh <- fmt.Errorf("http serve: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("serve.shutdown", "reason", ctx.Err())
	case runErr = <-errCh:
		logger.Error("serve.failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	hs.Shutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("serve.http.shutdown_failed", "error", err)
	}
	grpcServer.GracefulStop()
	queue.Shutdown(shutdownCtx)
	logger.Info("serve.stopped")
	return runErr
}
