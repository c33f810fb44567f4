// Command submit runs one pass over prepared campaigns and exits. Meant
// for cron setups where the long-running server queue is not wanted.
//
// Per-campaign failures are logged but do not change the exit code; the
// queue already isolates them and a cron wrapper alerting on exit status
// should only fire for infrastructure problems.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/newsletter-engine/internal/composer"
	"github.com/ignite/newsletter-engine/internal/config"
	"github.com/ignite/newsletter-engine/internal/pkg/logger"
	"github.com/ignite/newsletter-engine/internal/repository/postgres"
	"github.com/ignite/newsletter-engine/internal/submission"
	"github.com/ignite/newsletter-engine/internal/transport"
)

func main() {
	if err := run(); err != nil {
		logger.Error("submit run failed", "error", err)
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

	campaignRepo := postgres.NewCampaignRepo(db)
	subscriberRepo := postgres.NewSubscriberRepo(db)
	newsletterRepo := postgres.NewNewsletterRepo(db)

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

	batch, err := queue.RunDue(ctx)
	if err != nil {
		return fmt.Errorf("run queue: %w", err)
	}

	logger.Info("submit pass finished",
		"submitted", batch.Submitted, "failed", batch.Failed)
	return nil
}
