package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/pkg/logger"
)

// Service implements campaign business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// GetBySlug returns the campaign with the given slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.List(ctx, f)
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Slug         string      `json:"slug"`
	Title        string      `json:"title"`
	NewsletterID uuid.UUID   `json:"newsletter_id"`
	SegmentIDs   []uuid.UUID `json:"segment_ids"`
	RecipientIDs []uuid.UUID `json:"recipient_ids"`
	Publish      bool        `json:"publish"`
	PublishDate  time.Time   `json:"publish_date"`
	SendPlain    bool        `json:"send_plain"`
	SendHTML     bool        `json:"send_html"`
	UseTemplate  bool        `json:"use_template"`
}

// Create validates and persists a new campaign. New campaigns always start
// with all three submission flags off.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Campaign, error) {
	if input.Slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.NewsletterID == uuid.Nil {
		return nil, fmt.Errorf("newsletter_id is required")
	}

	if _, err := s.repo.GetBySlug(ctx, input.Slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if input.Publish {
		if err := s.checkDuplicatePublish(ctx, input.NewsletterID, uuid.Nil); err != nil {
			return nil, err
		}
	}

	c := &domain.Campaign{
		ID:           uuid.New(),
		Slug:         input.Slug,
		Title:        input.Title,
		NewsletterID: input.NewsletterID,
		SegmentIDs:   input.SegmentIDs,
		RecipientIDs: input.RecipientIDs,
		Publish:      input.Publish,
		PublishDate:  input.PublishDate,
		SendPlain:    input.SendPlain,
		SendHTML:     input.SendHTML,
		UseTemplate:  input.UseTemplate,
	}
	if c.PublishDate.IsZero() {
		c.PublishDate = s.now()
	}
	if !c.SendPlain && !c.SendHTML {
		c.SendHTML = true
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateFields holds the mutable fields for a campaign update. Nil fields
// are not applied.
type UpdateFields struct {
	Title        *string      `json:"title"`
	SegmentIDs   *[]uuid.UUID `json:"segment_ids"`
	RecipientIDs *[]uuid.UUID `json:"recipient_ids"`
	Publish      *bool        `json:"publish"`
	PublishDate  *time.Time   `json:"publish_date"`
	SendPlain    *bool        `json:"send_plain"`
	SendHTML     *bool        `json:"send_html"`
	UseTemplate  *bool        `json:"use_template"`
}

// Update modifies a campaign. Campaigns are frozen once the submission
// engine has claimed or completed them.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u UpdateFields) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Sent {
		return nil, ErrAlreadySent
	}
	if c.Sending {
		return nil, ErrLocked
	}

	if u.Publish != nil && *u.Publish && !c.Publish {
		if err := s.checkDuplicatePublish(ctx, c.NewsletterID, c.ID); err != nil {
			return nil, err
		}
	}

	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.SegmentIDs != nil {
		c.SegmentIDs = *u.SegmentIDs
	}
	if u.RecipientIDs != nil {
		c.RecipientIDs = *u.RecipientIDs
	}
	if u.Publish != nil {
		c.Publish = *u.Publish
	}
	if u.PublishDate != nil {
		c.PublishDate = *u.PublishDate
	}
	if u.SendPlain != nil {
		c.SendPlain = *u.SendPlain
	}
	if u.SendHTML != nil {
		c.SendHTML = *u.SendHTML
	}
	if u.UseTemplate != nil {
		c.UseTemplate = *u.UseTemplate
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a campaign. A campaign mid-send cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Sending {
		return ErrLocked
	}
	return s.repo.Delete(ctx, id)
}

// Submit marks a campaign prepared so the next queue pass sends it. The
// operation is idempotent in effect but loud in reporting: resubmitting a
// prepared or sent campaign returns an error instead of silently passing.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Sent {
		return nil, ErrAlreadySent
	}
	if c.Prepared {
		return nil, ErrAlreadySubmitted
	}

	if err := s.repo.SetPrepared(ctx, id); err != nil {
		return nil, err
	}
	c.Prepared = true

	logger.Info("campaign submitted for sending",
		"campaign", c.Slug, "publish_date", c.PublishDate.Format(time.RFC3339))
	return c, nil
}

func (s *Service) checkDuplicatePublish(ctx context.Context, newsletterID, selfID uuid.UUID) error {
	existing, err := s.repo.PublishedByNewsletter(ctx, newsletterID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrDuplicatePublish
	}
	return nil
}
