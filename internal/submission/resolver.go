package submission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/domain"
)

// Resolver materializes a campaign's recipient set.
//
// An explicit non-empty recipient override acts as a cache. Otherwise the
// resolver unions the membership of all attached segments and persists the
// result back onto the campaign so a resubmission after partial failure
// sees the same set. Either way the result is deduplicated by normalized
// email with first occurrence winning.
//
// Unsubscribed recipients are NOT filtered here: unsubscribe state can
// change between resolution and send, so the engine checks it per message.
type Resolver struct {
	store     CampaignStore
	directory Directory
}

// NewResolver creates a resolver over the given stores.
func NewResolver(store CampaignStore, directory Directory) *Resolver {
	return &Resolver{store: store, directory: directory}
}

// Resolve returns the campaign's recipients. An empty result is valid;
// submission then completes trivially.
func (r *Resolver) Resolve(ctx context.Context, c *domain.Campaign) ([]domain.Subscriber, error) {
	if len(c.RecipientIDs) > 0 {
		subs, err := r.directory.SubscribersByID(ctx, c.RecipientIDs)
		if err != nil {
			return nil, fmt.Errorf("load cached recipients: %w", err)
		}
		return dedupeByEmail(subs), nil
	}

	var out []domain.Subscriber
	for _, segID := range c.SegmentIDs {
		members, err := r.directory.SegmentMembers(ctx, segID)
		if err != nil {
			return nil, fmt.Errorf("segment %s members: %w", segID, err)
		}
		out = append(out, members...)
	}
	out = dedupeByEmail(out)

	ids := make([]uuid.UUID, len(out))
	for i, s := range out {
		ids[i] = s.ID
	}
	if err := r.store.SaveRecipientCache(ctx, c.ID, ids); err != nil {
		return nil, fmt.Errorf("persist recipient cache: %w", err)
	}
	c.RecipientIDs = ids

	return out, nil
}

// dedupeByEmail drops later subscribers whose normalized email was already
// seen, keeping the input order of the survivors.
func dedupeByEmail(subs []domain.Subscriber) []domain.Subscriber {
	seen := make(map[string]struct{}, len(subs))
	out := subs[:0:0]
	for _, s := range subs {
		key := domain.NormalizeEmail(s.Email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
