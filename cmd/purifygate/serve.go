package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"purifygate/pkg/api"
	"purifygate/pkg/config"
	"purifygate/pkg/control"
	"purifygate/pkg/engine"
	"purifygate/pkg/ingest"
	"purifygate/pkg/logging"
	"purifygate/pkg/metrics"
	"purifygate/pkg/output"
	"purifygate/pkg/purifier"
	"purifygate/pkg/wordlist"
)

const shutdownTimeout = 5 * time.Second

func cmdServe() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the gateway: TCP/UDP ingest, HTTP API and control plane",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	// 1. Config
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("initializing purifygate")

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Purifier and its word sources
	p := purifier.New(purifier.WithStrategy(purifier.ParseStrategy(cfg.Purifier.Strategy)))
	sources := control.NewWordSources(p)
	sources.Set(control.SourceConfig, cfg.Purifier.Words)

	var fileWatcher *control.FileWatcher
	if cfg.Purifier.WordsFile != "" {
		fileWatcher = control.NewFileWatcher(cfg.Purifier.WordsFile, sources, logger)
		if err := fileWatcher.Load(); err != nil {
			return err
		}
	}

	// 3. Buffer
	buffer, err := engine.NewRingBuffer(cfg.Pipeline.BufferSize)
	if err != nil {
		return errors.Wrap(err, "create buffer")
	}
	metrics.RegisterBuffer(
		func() float64 { return float64(buffer.Usage()) },
		func() float64 { return float64(buffer.Capacity()) },
	)

	// 4. Processors, until a manifest says otherwise
	mask, err := control.DefaultMask(cfg.Purifier)
	if err != nil {
		return err
	}
	builder := control.NewBuilder(p, mask, logger)
	chain := builder.Chain(control.ConfigRules(cfg.Purifier))

	// 5. Pipeline
	pipeline := engine.NewPipeline(buffer, chain, output.NewConsoleOutput(), engine.PipelineOptions{
		BatchSize:     cfg.Pipeline.BatchSize,
		FlushInterval: cfg.Pipeline.FlushInterval,
		BypassRatio:   cfg.Pipeline.BypassRatio,
		Logger:        logger,
	})

	// 6. Control plane
	var store *wordlist.RedisStore
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		watcher := control.NewWatcher(rdb, cfg.Redis, pipeline, builder, sources, logger)
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		store = watcher.Store()
	}
	if fileWatcher != nil && cfg.Purifier.WatchFile {
		if err := fileWatcher.Start(ctx); err != nil {
			return err
		}
	}
	logger.Info("banned words loaded", zap.Int("words", p.Len()), zap.Strings("sources", sources.Sources()))

	// --- Start ---
	done := pipeline.Start(ctx)

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: api.NewServer(api.Options{
			Purifier: p,
			Sources:  sources,
			Store:    store,
			Mask:     mask,
			Logger:   logger,
		}).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ingest.NewTCPIngestor(fmt.Sprintf(":%d", cfg.Server.TCPPort), buffer, logger).Start(gctx)
	})
	g.Go(func() error {
		return ingest.NewUDPIngestor(fmt.Sprintf(":%d", cfg.Server.UDPPort), buffer, logger).Start(gctx)
	})
	g.Go(func() error {
		logger.Info("HTTP API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("purifygate running, press Ctrl+C to stop")
	err = g.Wait()

	// A failed component ends the run the same way a signal does.
	stop()
	logger.Info("shutting down")
	<-done
	logger.Info("bye")
	return err
}
