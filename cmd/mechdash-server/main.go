package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mechdash/internal/config"
	"mechdash/internal/dataset"
	"mechdash/internal/listener"
	"mechdash/internal/logging"
	"mechdash/internal/pipeline"
	"mechdash/internal/server"
	"mechdash/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	must(err)

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON})
	must(err)
	defer func() { _ = logger.Sync() }()

	rules, err := pipeline.LoadRules(cfg.RulesPath)
	must(err)
	engine := pipeline.NewEngine(rules)

	var db *storage.DB
	if cfg.DatasetKind == dataset.KindSQLite {
		db, err = storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
	}

	src, err := dataset.Open(cfg, db)
	must(err)
	holder := dataset.NewHolder(src, engine.Normalizer(), logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(holder, engine, cfg, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listener.NewService(holder, cfg, logger).Run(gctx)
	})
	g.Go(func() error {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("dataset", holder.SourceName()),
			zap.Strings("nonAdditive", rules.NonAdditive.Names()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("http server stopped", zap.Error(err))
	must(err)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
