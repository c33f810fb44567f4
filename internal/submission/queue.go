package submission

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/newsletter-engine/internal/pkg/distlock"
	"github.com/ignite/newsletter-engine/internal/pkg/logger"
)

// BatchReport summarizes one queue pass over all due campaigns.
type BatchReport struct {
	Submitted int
	Failed    int
	Reports   []Report
}

// Queue finds campaigns that are prepared, unsent, unclaimed, and past
// their publish date, and submits each one. A fatal error in one campaign
// is recorded and does not stop the others.
type Queue struct {
	store  CampaignStore
	engine *Engine

	now func() time.Time
}

func NewQueue(store CampaignStore, engine *Engine) *Queue {
	return &Queue{store: store, engine: engine, now: time.Now}
}

// RunDue submits every due campaign once, in store order.
func (q *Queue) RunDue(ctx context.Context) (*BatchReport, error) {
	due, err := q.store.Due(ctx, q.now())
	if err != nil {
		return nil, err
	}

	batch := &BatchReport{}
	for i := range due {
		c := &due[i]
		report, err := q.engine.Submit(ctx, c)
		if err != nil {
			if errors.Is(err, ErrAlreadyClaimed) {
				logger.Info("campaign claimed elsewhere, skipping", "campaign", c.Slug)
				continue
			}
			batch.Failed++
			logger.Error("campaign submission failed", "campaign", c.Slug, "error", err)
			continue
		}
		batch.Submitted++
		batch.Reports = append(batch.Reports, *report)
	}
	return batch, nil
}

// Run polls for due campaigns until the context is cancelled. Each pass is
// guarded by the distributed lock so only one process drains the queue at
// a time; the per-campaign sending claim still protects against overlap if
// the lock backend misbehaves.
func (q *Queue) Run(ctx context.Context, interval time.Duration, lock distlock.DistLock) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("campaign queue started", "interval", interval.String())
	for {
		q.runLocked(ctx, lock)
		select {
		case <-ctx.Done():
			logger.Info("campaign queue stopped")
			return
		case <-ticker.C:
		}
	}
}

func (q *Queue) runLocked(ctx context.Context, lock distlock.DistLock) {
	if lock != nil {
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("acquire queue lock", "error", err)
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Error("release queue lock", "error", err)
			}
		}()
	}

	if _, err := q.RunDue(ctx); err != nil {
		logger.Error("queue pass failed", "error", err)
	}
}
