package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/app"
	"github.com/saikiran76/SwipeAI/internal/async"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/ingest"
	"github.com/saikiran76/SwipeAI/internal/server"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	logger := common.NewLogger(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, "invoiced", logger)
	if err != nil {
		logger.Error("invoiced.init.failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := os.MkdirAll(cfg.Server.InboxDir, 0o755); err != nil {
		logger.Error("invoiced.inbox.failed", "dir", cfg.Server.InboxDir, "error", err)
		os.Exit(1)
	}
	outbox, err := server.NewOutbox(cfg.Server.OutboxDir, logger)
	if err != nil {
		logger.Error("invoiced.outbox.failed", "dir", cfg.Server.OutboxDir, "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Server.Workers),
		async.WithQueueSize(512),
		async.WithProcessTimeout(cfg.Server.ProcessTimeout),
		async.WithResultFunc(outbox.ResultFunc()),
		async.WithMetrics(a.Metrics),
	)

	// HTTP: metrics, health, synchronous extraction
	httpSrv := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewRouter(server.HTTPConfig{
			Metrics:   a.Metrics.Handler(),
			Processor: a.Processor,
			Ready:     func(ctx context.Context) error { return a.Ready(ctx, 2*time.Second) },
			Timeout:   cfg.Server.ProcessTimeout,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http.listen", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http.serve.failed", "error", err)
			stop()
		}
	}()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc.listen.failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcHealth := server.NewGRPCHealth(logger)
	go func() {
		if err := grpcHealth.Serve(lis); err != nil {
			logger.Error("grpc.serve.failed", "error", err)
			stop()
		}
	}()

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Server.InboxDir},
		InitialScan: true,
	}, logger)
	if err != nil {
		logger.Error("ingest.watch.failed", "dir", cfg.Server.InboxDir, "error", err)
		os.Exit(1)
	}
	inbox := server.NewInbox(queue, a.Journal, constants.MethodAuto, logger)
	go inbox.Run(ctx, paths, errs)

	grpcHealth.SetServing(true)
	logger.Info("invoiced.started", "inbox", cfg.Server.InboxDir, "outbox", cfg.Server.OutboxDir, "workers", cfg.Server.Workers)

	<-ctx.Done()
	logger.Info("invoiced.stopping")
	grpcHealth.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ProcessTimeout+5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http.shutdown.failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	grpcHealth.Stop()
	logger.Info("invoiced.stopped")
}
