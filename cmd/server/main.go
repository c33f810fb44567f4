// Command server runs the newsletter engine: the HTTP API plus the
// background queue that submits due campaigns.
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

	"github.com/redis/go-redis/v9"

	"github.com/ignite/newsletter-engine/internal/api"
	"github.com/ignite/newsletter-engine/internal/composer"
	"github.com/ignite/newsletter-engine/internal/config"
	"github.com/ignite/newsletter-engine/internal/pkg/distlock"
	"github.com/ignite/newsletter-engine/internal/pkg/logger"
	"github.com/ignite/newsletter-engine/internal/repository/postgres"
	"github.com/ignite/newsletter-engine/internal/service/campaign"
	"github.com/ignite/newsletter-engine/internal/service/subscriber"
	"github.com/ignite/newsletter-engine/internal/submission"
	"github.com/ignite/newsletter-engine/internal/transport"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}

	campaignRepo := postgres.NewCampaignRepo(db)
	subscriberRepo := postgres.NewSubscriberRepo(db)
	segmentRepo := postgres.NewSegmentRepo(db)
	newsletterRepo := postgres.NewNewsletterRepo(db)

	campaignSvc := campaign.NewService(campaignRepo)
	subscriberSvc := subscriber.NewService(subscriberRepo, segmentRepo)

	comp := composer.New(
		composer.NewLookup(os.DirFS(cfg.Mail.TemplateDir)),
		composer.Config{
			FromName:  cfg.Mail.FromName,
			FromEmail: cfg.Mail.FromEmail,
			BaseURL:   cfg.Mail.BaseURL,
		},
	)

	mailer, err := transport.NewSESMailer(ctx, cfg.SES)
	if err != nil {
		return fmt.Errorf("init mail transport: %w", err)
	}

	pacing := submission.NewPacing(
		cfg.Submission.PerMessageDelay(),
		cfg.Submission.BatchSize,
		cfg.Submission.BatchDelay(),
	)
	engine := submission.NewEngine(campaignRepo, newsletterRepo, subscriberRepo, comp, mailer, pacing)
	queue := submission.NewQueue(campaignRepo, engine)

	lock := distlock.NewLock(redisClient, db, "campaign-queue", 10*time.Minute)
	go queue.Run(ctx, cfg.Submission.PollInterval(), lock)

	handlers := api.NewHandlers(campaignSvc, subscriberSvc, newsletterRepo)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port),
		Handler:           handlers.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
