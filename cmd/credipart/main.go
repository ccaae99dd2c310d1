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

	"credipart/internal/amqp"
	"credipart/internal/cache"
	"credipart/internal/cli"
	apphttp "credipart/internal/http"
	applog "credipart/internal/log"
	"credipart/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap("api")

	repo := cli.OpenRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional for the API: without it credits are still created,
	// the ledger export and reminders simply stay quiet.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Event publishing disabled, AMQP unreachable", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	credits := services.NewCreditService(repo, publisher)
	timelines := services.NewTimelineService(repo)
	projects := services.NewProjectService(repo, timelines)

	cacheManager := cache.NewManager()
	cacheManager.Register(timelines.Cache())
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, credits, projects, timelines, repo)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting credipart server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
