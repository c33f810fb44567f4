package subscriber

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/domain"
)

// Repository defines the data access contract for subscribers.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a subscriber by id. Returns ErrNotFound if missing.
	Get(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error)

	// GetByEmail looks a subscriber up by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)

	// List returns subscribers matching the filter plus the total count.
	List(ctx context.Context, f ListFilter) ([]domain.Subscriber, int, error)

	// Create inserts a new subscriber.
	Create(ctx context.Context, s *domain.Subscriber) error

	// Update persists the subscriber's mutable fields, the unsubscribe
	// state and token included.
	Update(ctx context.Context, s *domain.Subscriber) error
}

// SegmentRepository defines the data access contract for segments.
type SegmentRepository interface {
	// Get returns a segment by id. Returns ErrSegmentNotFound if missing.
	Get(ctx context.Context, id uuid.UUID) (*domain.Segment, error)

	// List returns all segments ordered by name.
	List(ctx context.Context) ([]domain.Segment, error)

	// Create inserts a new segment.
	Create(ctx context.Context, s *domain.Segment) error

	// SetMembers replaces the segment's membership.
	SetMembers(ctx context.Context, id uuid.UUID, memberIDs []uuid.UUID) error
}

// ListFilter controls pagination and filtering for subscriber lists.
type ListFilter struct {
	Unsubscribed *bool
	Search       string
	Limit        int
	Offset       int
}
