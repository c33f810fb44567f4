package submission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/composer"
	"github.com/ignite/newsletter-engine/internal/domain"
)

// CampaignStore persists the campaign state machine. Implementations must
// be safe for concurrent use.
type CampaignStore interface {
	// Due returns campaigns eligible for submission at the given instant:
	// prepared, not sent, not sending, publish date in the past.
	Due(ctx context.Context, now time.Time) ([]domain.Campaign, error)

	// ClaimSending atomically sets sending=true if the campaign is neither
	// sending nor sent. Returns false when another run holds the claim.
	ClaimSending(ctx context.Context, id uuid.UUID) (bool, error)

	// ReleaseSending clears sending unconditionally. Called on every exit
	// path of a run so a crashed campaign can be resubmitted.
	ReleaseSending(ctx context.Context, id uuid.UUID) error

	// MarkSent sets sent=true after a fatal-error-free recipient loop.
	MarkSent(ctx context.Context, id uuid.UUID) error

	// SaveRecipientCache persists the materialized recipient set on the
	// campaign so repeated submissions reuse a consistent set.
	SaveRecipientCache(ctx context.Context, id uuid.UUID, recipientIDs []uuid.UUID) error
}

// ContentStore loads the per-campaign message inputs.
type ContentStore interface {
	NewsletterByID(ctx context.Context, id uuid.UUID) (*domain.Newsletter, error)
	AttachmentsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Attachment, error)
}

// Directory reads subscribers and segment membership. The engine never
// writes through this interface; recipient data is read-only during a run.
type Directory interface {
	SubscribersByID(ctx context.Context, ids []uuid.UUID) ([]domain.Subscriber, error)
	SegmentMembers(ctx context.Context, segmentID uuid.UUID) ([]domain.Subscriber, error)
}

// Composer builds one personalized message per recipient. Errors are
// configuration defects and abort the whole run.
type Composer interface {
	Compose(campaign *domain.Campaign, sub *domain.Subscriber, rc composer.Context) (*domain.EmailMessage, error)
}

// Transport delivers one composed message. Errors are per-recipient and
// recoverable; the engine logs them and continues the loop.
type Transport interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}
