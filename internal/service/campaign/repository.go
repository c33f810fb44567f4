package campaign

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)

	// GetBySlug returns the campaign with the given slug, or ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (*domain.Campaign, error)

	// List returns campaigns matching the filter plus the unpaginated total,
	// ordered by publish_date DESC.
	List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// Update persists the campaign's mutable fields.
	Update(ctx context.Context, c *domain.Campaign) error

	// Delete removes a campaign and its attachments.
	Delete(ctx context.Context, id uuid.UUID) error

	// PublishedByNewsletter returns the published campaign attached to the
	// newsletter, or ErrNotFound when there is none.
	PublishedByNewsletter(ctx context.Context, newsletterID uuid.UUID) (*domain.Campaign, error)

	// SetPrepared flips the prepared flag on.
	SetPrepared(ctx context.Context, id uuid.UUID) error
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Prepared *bool
	Sent     *bool
	Search   string
	Limit    int
	Offset   int
}
