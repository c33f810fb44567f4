package subscriber

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/addressimport"
	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/pkg/logger"
)

// Service implements subscriber directory business logic.
type Service struct {
	repo     Repository
	segments SegmentRepository
	now      func() time.Time
}

// NewService creates a subscriber service.
func NewService(repo Repository, segments SegmentRepository) *Service {
	return &Service{repo: repo, segments: segments, now: time.Now}
}

// Get returns a subscriber by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	return s.repo.Get(ctx, id)
}

// FindByEmail returns a subscriber by normalized email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	return s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
}

// List returns subscribers matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Subscriber, int, error) {
	return s.repo.List(ctx, f)
}

// Subscribe registers a new subscriber, or reactivates an unsubscribed
// one. Reactivation rotates the unsubscribe token so links in previously
// delivered messages stop working. An active subscription is an error so
// the caller can tell the submitter.
func (s *Service) Subscribe(ctx context.Context, email, name string) (*domain.Subscriber, error) {
	email = domain.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.Unsubscribed {
			return nil, ErrAlreadySubscribed
		}
		existing.Unsubscribed = false
		existing.UnsubscribedAt = nil
		existing.Token = uuid.NewString()
		if name != "" {
			existing.Name = name
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		logger.Info("subscriber reactivated", "subscriber", existing.Email)
		return existing, nil

	case errors.Is(err, ErrNotFound):
		sub := &domain.Subscriber{
			ID:        uuid.New(),
			Email:     email,
			Name:      name,
			Confirmed: true,
			Token:     uuid.NewString(),
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, err
		}
		logger.Info("subscriber created", "subscriber", sub.Email)
		return sub, nil

	default:
		return nil, err
	}
}

// Unsubscribe opts a subscriber out. The token must match the one issued
// at subscription time; a mismatch is reported without leaking whether the
// email exists in any other state. Repeating an unsubscribe is a no-op.
func (s *Service) Unsubscribe(ctx context.Context, email, token string) error {
	sub, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if token == "" || sub.Token != token {
		return ErrTokenMismatch
	}
	if sub.Unsubscribed {
		return nil
	}

	now := s.now()
	sub.Unsubscribed = true
	sub.UnsubscribedAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		return err
	}
	logger.Info("subscriber unsubscribed", "subscriber", sub.Email)
	return nil
}

// ImportResult summarizes a bulk address import.
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"` // already present
}

// Import creates subscribers for parsed addresses. Existing emails are
// skipped regardless of their subscription state; imports never overwrite
// an unsubscribe decision.
func (s *Service) Import(ctx context.Context, addrs []addressimport.Address) (*ImportResult, error) {
	res := &ImportResult{}
	for _, a := range addrs {
		email := domain.NormalizeEmail(a.Email)
		_, err := s.repo.GetByEmail(ctx, email)
		if err == nil {
			res.Skipped++
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return res, err
		}

		sub := &domain.Subscriber{
			ID:         uuid.New(),
			Email:      email,
			Name:       a.Name,
			City:       a.City,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Confirmed:  true,
			Token:      uuid.NewString(),
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return res, fmt.Errorf("import %s: %w", email, err)
		}
		res.Created++
	}

	logger.Info("address import finished", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

// Segments returns all segments.
func (s *Service) Segments(ctx context.Context) ([]domain.Segment, error) {
	return s.segments.List(ctx)
}

// CreateSegment creates a named segment with an optional initial
// membership.
func (s *Service) CreateSegment(ctx context.Context, name string, memberIDs []uuid.UUID) (*domain.Segment, error) {
	if name == "" {
		return nil, fmt.Errorf("segment name is required")
	}
	seg := &domain.Segment{ID: uuid.New(), Name: name, MemberIDs: memberIDs}
	if err := s.segments.Create(ctx, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

// SetSegmentMembers replaces a segment's membership after verifying the
// segment exists.
func (s *Service) SetSegmentMembers(ctx context.Context, id uuid.UUID, memberIDs []uuid.UUID) error {
	if _, err := s.segments.Get(ctx, id); err != nil {
		return err
	}
	return s.segments.SetMembers(ctx, id, memberIDs)
}
