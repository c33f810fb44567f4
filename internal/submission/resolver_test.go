package submission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter-engine/internal/domain"
)

func TestResolveUsesExplicitRecipientOverride(t *testing.T) {
	ada := newSubscriber("ada@example.com", "Ada")
	grace := newSubscriber("grace@example.com", "Grace")
	directory := &memDirectory{
		subscribers: map[uuid.UUID]domain.Subscriber{ada.ID: ada, grace.ID: grace},
		segments: map[uuid.UUID][]domain.Subscriber{
			uuid.New(): {newSubscriber("never@example.com", "Never")},
		},
	}
	campaign := &domain.Campaign{ID: uuid.New(), RecipientIDs: []uuid.UUID{ada.ID}}
	store := newMemStore(campaign)

	subs, err := NewResolver(store, directory).Resolve(context.Background(), campaign)
	require.NoError(t, err)

	// Segments are not consulted when the override is present.
	require.Len(t, subs, 1)
	assert.Equal(t, "ada@example.com", subs[0].Email)
	assert.Empty(t, store.cache)
}

func TestResolveOverrideDedupesByEmail(t *testing.T) {
	ada := newSubscriber("ada@example.com", "Ada")
	adaAlias := newSubscriber(" ADA@Example.com", "Ada A.")
	grace := newSubscriber("grace@example.com", "Grace")
	directory := &memDirectory{
		subscribers: map[uuid.UUID]domain.Subscriber{
			ada.ID: ada, adaAlias.ID: adaAlias, grace.ID: grace,
		},
	}
	campaign := &domain.Campaign{
		ID:           uuid.New(),
		RecipientIDs: []uuid.UUID{ada.ID, adaAlias.ID, grace.ID, grace.ID},
	}
	store := newMemStore(campaign)

	subs, err := NewResolver(store, directory).Resolve(context.Background(), campaign)
	require.NoError(t, err)

	// First occurrence wins, same as the segment path.
	require.Len(t, subs, 2)
	assert.Equal(t, "ada@example.com", subs[0].Email)
	assert.Equal(t, "grace@example.com", subs[1].Email)
}

func TestResolveUnionsSegmentsDedupedByEmail(t *testing.T) {
	ada := newSubscriber("ada@example.com", "Ada")
	adaAgain := newSubscriber("ADA@Example.com ", "Ada Duplicate")
	grace := newSubscriber("grace@example.com", "Grace")

	segA, segB := uuid.New(), uuid.New()
	directory := &memDirectory{
		segments: map[uuid.UUID][]domain.Subscriber{
			segA: {ada, grace},
			segB: {adaAgain, grace},
		},
	}
	campaign := &domain.Campaign{ID: uuid.New(), SegmentIDs: []uuid.UUID{segA, segB}}
	store := newMemStore(campaign)

	subs, err := NewResolver(store, directory).Resolve(context.Background(), campaign)
	require.NoError(t, err)

	// First occurrence wins for the normalized duplicate.
	require.Len(t, subs, 2)
	assert.Equal(t, "Ada", subs[0].Name)
	assert.Equal(t, "Grace", subs[1].Name)
}

func TestResolvePersistsRecipientCache(t *testing.T) {
	ada := newSubscriber("ada@example.com", "Ada")
	seg := uuid.New()
	directory := &memDirectory{segments: map[uuid.UUID][]domain.Subscriber{seg: {ada}}}
	campaign := &domain.Campaign{ID: uuid.New(), SegmentIDs: []uuid.UUID{seg}}
	store := newMemStore(campaign)

	_, err := NewResolver(store, directory).Resolve(context.Background(), campaign)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{ada.ID}, store.cache[campaign.ID])
	assert.Equal(t, []uuid.UUID{ada.ID}, campaign.RecipientIDs)
}

func TestResolveEmptySegmentsYieldsEmptySet(t *testing.T) {
	campaign := &domain.Campaign{ID: uuid.New(), SegmentIDs: []uuid.UUID{uuid.New()}}
	store := newMemStore(campaign)
	directory := &memDirectory{segments: map[uuid.UUID][]domain.Subscriber{}}

	subs, err := NewResolver(store, directory).Resolve(context.Background(), campaign)
	require.NoError(t, err)

	assert.Empty(t, subs)
}

func TestResolveDoesNotFilterUnsubscribed(t *testing.T) {
	gone := newSubscriber("gone@example.com", "Gone")
	gone.Unsubscribed = true
	now := time.Now()
	gone.UnsubscribedAt = &now

	seg := uuid.New()
	directory := &memDirectory{segments: map[uuid.UUID][]domain.Subscriber{seg: {gone}}}
	campaign := &domain.Campaign{ID: uuid.New(), SegmentIDs: []uuid.UUID{seg}}

	subs, err := NewResolver(newMemStore(campaign), directory).Resolve(context.Background(), campaign)
	require.NoError(t, err)

	// Unsubscribe state is a send-time concern.
	require.Len(t, subs, 1)
	assert.False(t, subs[0].Sendable())
}
