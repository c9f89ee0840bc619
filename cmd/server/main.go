// Command server runs the gallery API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/leeforge/gallery/api"
	"github.com/leeforge/gallery/auth"
	"github.com/leeforge/gallery/codec"
	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/gallery"
	"github.com/leeforge/gallery/http/middleware"
	"github.com/leeforge/gallery/ingest"
	"github.com/leeforge/gallery/logging"
	"github.com/leeforge/gallery/redis_client"
	"github.com/leeforge/gallery/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cnf, err := config.LoadApp()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(cnf.Log)
	log := logging.L().Named("server")
	defer log.Sync()

	// Stats are optional; the gallery degrades to store-only counters
	// when Redis is unreachable.
	var stats gallery.StatsStore
	var limits middleware.LimitBackend = middleware.NewMemoryLimitBackend()
	if rdb, err := redis_client.NewRedis(cnf.Redis); err != nil {
		log.WithError(err).Warn("redis unavailable, trending disabled")
	} else {
		stats = gallery.NewRedisStats(rdb)
		limits = middleware.NewRedisLimitBackend(rdb)
	}

	providers := storage.NewMemoryConfigStore(storage.ProviderRecord{
		ID:           "default",
		ProviderName: cnf.Storage.DefaultProvider,
		IsActive:     true,
		Priority:     1,
	})
	selector, err := storage.NewSelector(providers, cnf.Storage, log.Named("storage"))
	if err != nil {
		return fmt.Errorf("storage selector: %w", err)
	}

	pipeline := ingest.New(selector, nil, codec.ValidationLimits{
		MaxWidth:       cnf.Upload.MaxWidth,
		MaxHeight:      cnf.Upload.MaxHeight,
		MaxBytes:       cnf.Upload.MaxBytes,
		AllowedFormats: cnf.Upload.AllowedFormatsOrDefault(),
	}, ingest.WithLogger(log.Named("ingest")))

	store := gallery.NewMemoryStore()
	svc := gallery.NewService(store, store.Categories(), stats, pipeline, selector, log.Named("gallery"))

	rbac, err := auth.NewRBACManager()
	if err != nil {
		return fmt.Errorf("rbac: %w", err)
	}
	for _, subject := range cnf.Auth.AdminSubjects {
		if err := rbac.GrantRole(subject, cnf.Auth.AdminRole); err != nil {
			return fmt.Errorf("grant %s: %w", subject, err)
		}
	}

	handler := api.NewHandler(svc, providers, selector, rbac, auth.NewHeaderResolver(), cnf.Upload, log.Named("api"))
	handler.UseRateLimit(limits, 60)

	addr := fmt.Sprintf("%s:%d", cnf.Server.Host, cnf.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  time.Duration(cnf.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cnf.Server.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cnf.Server.ShutdownSec)*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
