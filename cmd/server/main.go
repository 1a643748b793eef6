package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brokerdesk/internal/config"
	"brokerdesk/internal/infra"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/router"
	"brokerdesk/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.AutoMigrate {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker pool for notification persistence and mail delivery. Handlers
	// are wired here (composition root) so the pool sees every dependency.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := worker.NewRedisQueue(rdb)
	dispatcher := worker.NewDispatcher(queue)

	var emails worker.EmailEnqueuer
	handlers := map[string]worker.Handler{}
	if cfg.SMTPEnabled() {
		mailer := infra.NewMailer(cfg, infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp")))
		handlers[worker.QueueEmail] = worker.NewEmailWorker(mailer).Process
		emails = dispatcher
	} else {
		log.Warn().Msg("SMTP_HOST not set, notifications will not be mailed")
	}
	notifWorker := worker.NewNotificationWorker(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		emails,
	)
	handlers[worker.QueueNotification] = notifWorker.Process

	pool := worker.NewPool(queue, handlers)
	pool.Start(ctx, cfg.WorkerPoolSize)

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("brokerdesk listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	pool.Wait()
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}
