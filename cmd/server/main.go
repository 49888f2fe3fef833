package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/A-Yoshitsugu/crossborder/config"
	"github.com/A-Yoshitsugu/crossborder/internal/app"
	httpDelivery "github.com/A-Yoshitsugu/crossborder/internal/delivery/http"
	"github.com/A-Yoshitsugu/crossborder/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	lg.Info("starting crossborder backend",
		zap.String("version", app.Version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("cache", cfg.Cache.Type))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := app.Wire(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("wiring dependencies", zap.Error(err))
	}
	defer cleanup()

	handler := httpDelivery.NewHandler(deps.Service, app.Version, lg)
	router := httpDelivery.SetupRouter(cfg, handler, lg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// The catalog loads in the background; /api/v1 answers 503 until it is published
	g.Go(func() error {
		// A failed load is published on the gate; the server stays up and reports it
		if err := deps.LoadCatalog(gctx, lg); err != nil {
			lg.Error("catalog load failed", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				// Reload logs its own outcome and keeps the old snapshot on error
				_ = deps.Fees.Reload()
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		lg.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("server stopped")
}
