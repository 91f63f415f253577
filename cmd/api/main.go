package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gatehouse.dev/internal/app"
	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/httpapi"
	"gatehouse.dev/internal/obs"
	"gatehouse.dev/internal/store/pg"
)

func main() {
	logger := obs.Logger()
	if err := run(); err != nil {
		logger.Fatalf("api: %v", err)
	}
}

func run() error {
	obs.Init()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	store, err := pg.Open(cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	defer store.Close()

	signer, err := auth.NewTokenSigner(cfg.SecretKey, cfg.TokenTTL)
	if err != nil {
		return err
	}
	svc, err := auth.NewService(store, auth.WithTokenSigner(signer))
	if err != nil {
		return err
	}

	api := httpapi.New(cfg, svc, store.DB())
	defer api.Close()
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obs.Logger().Printf("api: listening on %s (env=%s)", cfg.AppAddr, cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		obs.Logger().Printf("api: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
