// Package submission implements the campaign submission engine: recipient
// resolution, the paced sequential send loop, the prepared/sending/sent
// state machine, and the queue that drives due campaigns.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/composer"
	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/pkg/logger"
)

// Report holds the per-recipient outcome counts of one submission run.
// Operators see these aggregates plus per-failure log entries; failed
// recipients are not queued for retry.
type Report struct {
	CampaignID uuid.UUID
	Resolved   int // recipients after resolution
	Skipped    int // excluded at send time (unsubscribed)
	Delivered  int
	Failed     int // transport failures, logged and skipped
}

// Engine drives one campaign's full submission. The send loop is strictly
// sequential: pacing depends on it, and concurrent dispatch would violate
// the transport rate-limit contract.
type Engine struct {
	store     CampaignStore
	content   ContentStore
	resolver  *Resolver
	composer  Composer
	transport Transport
	pacing    *Pacing

	now func() time.Time
}

// NewEngine wires an engine from its collaborators.
func NewEngine(store CampaignStore, content ContentStore, directory Directory, comp Composer, tr Transport, pacing *Pacing) *Engine {
	if pacing == nil {
		pacing = NewPacing(0, 0, 0)
	}
	return &Engine{
		store:     store,
		content:   content,
		resolver:  NewResolver(store, directory),
		composer:  comp,
		transport: tr,
		pacing:    pacing,
		now:       time.Now,
	}
}

// Submit runs one campaign to completion or fatal error.
//
// Preconditions: the campaign must not be sent, its publish date must have
// passed, and the sending claim must succeed. After the claim, sending is
// cleared on every exit path; sent is set only when the recipient loop
// finishes without a fatal error. A transport failure for one recipient is
// logged and does not abort the loop.
func (e *Engine) Submit(ctx context.Context, c *domain.Campaign) (*Report, error) {
	if c.Sent {
		return nil, ErrAlreadySent
	}
	if e.now().Before(c.PublishDate) {
		return nil, fmt.Errorf("campaign %s: %w", c.Slug, ErrPublishDateInFuture)
	}

	claimed, err := e.store.ClaimSending(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("claim sending: %w", err)
	}
	if !claimed {
		return nil, ErrAlreadyClaimed
	}
	c.Sending = true
	defer func() {
		c.Sending = false
		// Release must happen even when the run's context is cancelled.
		if relErr := e.store.ReleaseSending(context.WithoutCancel(ctx), c.ID); relErr != nil {
			logger.Error("release sending flag", "campaign", c.Slug, "error", relErr)
		}
	}()

	report := &Report{CampaignID: c.ID}

	recipients, err := e.resolver.Resolve(ctx, c)
	if err != nil {
		return report, err
	}
	report.Resolved = len(recipients)

	newsletter, err := e.content.NewsletterByID(ctx, c.NewsletterID)
	if err != nil {
		return report, fmt.Errorf("load newsletter: %w", err)
	}
	attachments, err := e.content.AttachmentsByCampaign(ctx, c.ID)
	if err != nil {
		return report, fmt.Errorf("load attachments: %w", err)
	}
	rc := composer.Context{Newsletter: newsletter, Attachments: attachments}

	// Unsubscribe state is evaluated now, at send time, not at resolution.
	var sendable []domain.Subscriber
	for _, sub := range recipients {
		if sub.Sendable() {
			sendable = append(sendable, sub)
		} else {
			report.Skipped++
		}
	}

	logger.Info("submitting campaign",
		"campaign", c.Slug, "recipients", len(sendable), "skipped", report.Skipped)

	for i := range sendable {
		sub := &sendable[i]
		e.pacing.BeforeEach(i)

		msg, err := e.composer.Compose(c, sub, rc)
		if err != nil {
			// Configuration defect: abort the run, leave sent=false.
			return report, err
		}

		if _, err := e.transport.Send(ctx, msg); err != nil {
			report.Failed++
			logger.Error("delivery failed",
				"campaign", c.Slug, "recipient", sub.Email, "error", err)
			continue
		}
		report.Delivered++
	}

	if err := e.store.MarkSent(ctx, c.ID); err != nil {
		return report, fmt.Errorf("mark sent: %w", err)
	}
	c.Sent = true

	logger.Info("campaign submitted",
		"campaign", c.Slug, "delivered", report.Delivered,
		"failed", report.Failed, "skipped", report.Skipped)

	return report, nil
}
