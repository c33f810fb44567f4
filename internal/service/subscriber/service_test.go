package subscriber_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter-engine/internal/addressimport"
	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/service/subscriber"
)

// memRepo is an in-memory subscriber repository for unit testing.
type memRepo struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*domain.Subscriber
}

func newMemRepo() *memRepo {
	return &memRepo{subs: make(map[uuid.UUID]*domain.Subscriber)}
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, subscriber.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, subscriber.ErrNotFound
}

func (m *memRepo) List(_ context.Context, f subscriber.ListFilter) ([]domain.Subscriber, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Subscriber
	for _, s := range m.subs {
		if f.Unsubscribed != nil && s.Unsubscribed != *f.Unsubscribed {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, s *domain.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[cp.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, s *domain.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[s.ID]; !ok {
		return subscriber.ErrNotFound
	}
	cp := *s
	m.subs[cp.ID] = &cp
	return nil
}

// memSegments is an in-memory segment repository.
type memSegments struct {
	mu       sync.Mutex
	segments map[uuid.UUID]*domain.Segment
}

func newMemSegments() *memSegments {
	return &memSegments{segments: make(map[uuid.UUID]*domain.Segment)}
}

func (m *memSegments) Get(_ context.Context, id uuid.UUID) (*domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.segments[id]
	if !ok {
		return nil, subscriber.ErrSegmentNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSegments) List(_ context.Context) ([]domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Segment
	for _, s := range m.segments {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memSegments) Create(_ context.Context, s *domain.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.segments[cp.ID] = &cp
	return nil
}

func (m *memSegments) SetMembers(_ context.Context, id uuid.UUID, memberIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.segments[id]
	if !ok {
		return subscriber.ErrSegmentNotFound
	}
	s.MemberIDs = memberIDs
	return nil
}

func newService() (*subscriber.Service, *memRepo, *memSegments) {
	repo := newMemRepo()
	segments := newMemSegments()
	return subscriber.NewService(repo, segments), repo, segments
}

func TestSubscribeCreatesNewSubscriber(t *testing.T) {
	svc, _, _ := newService()

	sub, err := svc.Subscribe(context.Background(), " Ada@Example.com ", "Ada Lovelace")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", sub.Email)
	assert.Equal(t, "Ada Lovelace", sub.Name)
	assert.NotEmpty(t, sub.Token)
	assert.True(t, sub.Sendable())
}

func TestSubscribeRejectsActiveDuplicate(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Subscribe(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), "ADA@example.com", "Ada")
	assert.ErrorIs(t, err, subscriber.ErrAlreadySubscribed)
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Subscribe(context.Background(), "not-an-email", "Nope")
	assert.ErrorIs(t, err, subscriber.ErrInvalidEmail)
}

func TestResubscribeReactivatesAndRotatesToken(t *testing.T) {
	svc, _, _ := newService()
	sub, err := svc.Subscribe(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)
	oldToken := sub.Token

	require.NoError(t, svc.Unsubscribe(context.Background(), sub.Email, oldToken))

	again, err := svc.Subscribe(context.Background(), "ada@example.com", "")
	require.NoError(t, err)

	assert.True(t, again.Sendable())
	assert.Nil(t, again.UnsubscribedAt)
	assert.NotEqual(t, oldToken, again.Token)
	assert.Equal(t, "Ada", again.Name)
}

func TestUnsubscribeRequiresMatchingToken(t *testing.T) {
	svc, _, _ := newService()
	sub, err := svc.Subscribe(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	err = svc.Unsubscribe(context.Background(), sub.Email, "wrong-token")
	assert.ErrorIs(t, err, subscriber.ErrTokenMismatch)

	err = svc.Unsubscribe(context.Background(), sub.Email, "")
	assert.ErrorIs(t, err, subscriber.ErrTokenMismatch)

	got, err := svc.FindByEmail(context.Background(), sub.Email)
	require.NoError(t, err)
	assert.True(t, got.Sendable())
}

func TestUnsubscribeSetsStateAndTimestamp(t *testing.T) {
	svc, _, _ := newService()
	sub, err := svc.Subscribe(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(context.Background(), sub.Email, sub.Token))

	got, err := svc.FindByEmail(context.Background(), sub.Email)
	require.NoError(t, err)
	assert.True(t, got.Unsubscribed)
	require.NotNil(t, got.UnsubscribedAt)

	// Repeating is a no-op, not an error.
	assert.NoError(t, svc.Unsubscribe(context.Background(), sub.Email, sub.Token))
}

func TestImportSkipsExistingAndPreservesUnsubscribes(t *testing.T) {
	svc, _, _ := newService()
	sub, err := svc.Subscribe(context.Background(), "gone@example.com", "Gone")
	require.NoError(t, err)
	require.NoError(t, svc.Unsubscribe(context.Background(), sub.Email, sub.Token))

	res, err := svc.Import(context.Background(), []addressimport.Address{
		{Name: "Ada Lovelace", Email: "ada@example.com", City: "London"},
		{Name: "Gone Person", Email: "gone@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)

	ada, err := svc.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "London", ada.City)
	assert.NotEmpty(t, ada.Token)

	gone, err := svc.FindByEmail(context.Background(), "gone@example.com")
	require.NoError(t, err)
	assert.False(t, gone.Sendable())
}

func TestSegmentLifecycle(t *testing.T) {
	svc, _, _ := newService()
	ada, err := svc.Subscribe(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	seg, err := svc.CreateSegment(context.Background(), "early-adopters", nil)
	require.NoError(t, err)

	require.NoError(t, svc.SetSegmentMembers(context.Background(), seg.ID, []uuid.UUID{ada.ID}))

	err = svc.SetSegmentMembers(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, subscriber.ErrSegmentNotFound)

	_, err = svc.CreateSegment(context.Background(), "", nil)
	assert.Error(t, err)
}
