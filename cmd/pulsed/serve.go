package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pulse-ui/pulse/internal/config"
	"github.com/pulse-ui/pulse/pkg/component"
	"github.com/pulse-ui/pulse/pkg/dispatch"
	"github.com/pulse-ui/pulse/pkg/httpd"
	"github.com/pulse-ui/pulse/pkg/metrics"
	"github.com/pulse-ui/pulse/pkg/queue"
	"github.com/pulse-ui/pulse/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the component update server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to pulse.json")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from pulse.json)")
	return cmd
}

func runServe(cfg *config.Config) error {
	logger := slog.Default()

	queueStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer queueStore.Close()

	registry := component.NewRegistry()
	registerBuiltins(registry)

	proc := dispatch.New(registry,
		dispatch.WithStrictMethods(cfg.StrictMethods),
	)
	coord := queue.New(queueStore, proc,
		queue.WithTTL(cfg.QueueTTL()),
		queue.WithMetrics(metrics.New()),
	)
	server := httpd.New(coord)

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "store", cfg.Store.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		return store.NewRedisStore(client), nil
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
