package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter-engine/internal/addressimport"
	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/service/campaign"
	"github.com/ignite/newsletter-engine/internal/service/subscriber"
)

// stubCampaigns implements CampaignService with canned responses.
type stubCampaigns struct {
	submitErr error
	submitted []uuid.UUID
	campaign  *domain.Campaign
}

func (s *stubCampaigns) Get(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	if s.campaign == nil || s.campaign.ID != id {
		return nil, campaign.ErrNotFound
	}
	return s.campaign, nil
}

func (s *stubCampaigns) List(context.Context, campaign.ListFilter) ([]domain.Campaign, int, error) {
	if s.campaign == nil {
		return nil, 0, nil
	}
	return []domain.Campaign{*s.campaign}, 1, nil
}

func (s *stubCampaigns) Create(_ context.Context, input campaign.CreateInput) (*domain.Campaign, error) {
	return &domain.Campaign{ID: uuid.New(), Slug: input.Slug, Title: input.Title}, nil
}

func (s *stubCampaigns) Update(_ context.Context, id uuid.UUID, _ campaign.UpdateFields) (*domain.Campaign, error) {
	return s.Get(context.Background(), id)
}

func (s *stubCampaigns) Delete(context.Context, uuid.UUID) error { return nil }

func (s *stubCampaigns) Submit(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = append(s.submitted, id)
	c := *s.campaign
	c.Prepared = true
	return &c, nil
}

// stubSubscribers implements SubscriberService over a map keyed by email.
type stubSubscribers struct {
	subs     map[string]*domain.Subscriber
	imported []addressimport.Address
}

func newStubSubscribers() *stubSubscribers {
	return &stubSubscribers{subs: make(map[string]*domain.Subscriber)}
}

func (s *stubSubscribers) Subscribe(_ context.Context, email, name string) (*domain.Subscriber, error) {
	email = domain.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, subscriber.ErrInvalidEmail
	}
	if existing, ok := s.subs[email]; ok && !existing.Unsubscribed {
		return nil, subscriber.ErrAlreadySubscribed
	}
	sub := &domain.Subscriber{ID: uuid.New(), Email: email, Name: name, Token: "tok"}
	s.subs[email] = sub
	return sub, nil
}

func (s *stubSubscribers) Unsubscribe(_ context.Context, email, token string) error {
	sub, ok := s.subs[domain.NormalizeEmail(email)]
	if !ok {
		return subscriber.ErrNotFound
	}
	if sub.Token != token {
		return subscriber.ErrTokenMismatch
	}
	sub.Unsubscribed = true
	return nil
}

func (s *stubSubscribers) List(context.Context, subscriber.ListFilter) ([]domain.Subscriber, int, error) {
	var out []domain.Subscriber
	for _, sub := range s.subs {
		out = append(out, *sub)
	}
	return out, len(out), nil
}

func (s *stubSubscribers) Import(_ context.Context, addrs []addressimport.Address) (*subscriber.ImportResult, error) {
	s.imported = append(s.imported, addrs...)
	return &subscriber.ImportResult{Created: len(addrs)}, nil
}

func (s *stubSubscribers) Segments(context.Context) ([]domain.Segment, error) { return nil, nil }

func (s *stubSubscribers) CreateSegment(_ context.Context, name string, memberIDs []uuid.UUID) (*domain.Segment, error) {
	return &domain.Segment{ID: uuid.New(), Name: name, MemberIDs: memberIDs}, nil
}

func (s *stubSubscribers) SetSegmentMembers(context.Context, uuid.UUID, []uuid.UUID) error {
	return nil
}

// stubNewsletters implements NewsletterStore.
type stubNewsletters struct {
	items map[uuid.UUID]*domain.Newsletter
}

func (s *stubNewsletters) NewsletterByID(_ context.Context, id uuid.UUID) (*domain.Newsletter, error) {
	n, ok := s.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return n, nil
}

func (s *stubNewsletters) List(context.Context) ([]domain.Newsletter, error) { return nil, nil }

func (s *stubNewsletters) Create(_ context.Context, n *domain.Newsletter) error {
	s.items[n.ID] = n
	return nil
}

func (s *stubNewsletters) Update(_ context.Context, n *domain.Newsletter) error {
	s.items[n.ID] = n
	return nil
}

func testServer(campaigns *stubCampaigns, subs *stubSubscribers) *httptest.Server {
	h := NewHandlers(campaigns, subs, &stubNewsletters{items: make(map[uuid.UUID]*domain.Newsletter)})
	return httptest.NewServer(h.Router())
}

func TestSubscribeEndpoint(t *testing.T) {
	srv := testServer(&stubCampaigns{}, newStubSubscribers())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/subscribe", "application/json",
		strings.NewReader(`{"email":"ada@example.com","name":"Ada"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Second subscription conflicts.
	resp2, err := http.Post(srv.URL+"/subscribe", "application/json",
		strings.NewReader(`{"email":"ada@example.com","name":"Ada"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	srv := testServer(&stubCampaigns{}, newStubSubscribers())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/subscribe", "application/json",
		strings.NewReader(`{"email":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnsubscribeEndpoint(t *testing.T) {
	subs := newStubSubscribers()
	srv := testServer(&stubCampaigns{}, subs)
	defer srv.Close()

	_, err := subs.Subscribe(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/unsubscribe/?email=ada%40example.com&token=tok")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, subs.subs["ada@example.com"].Unsubscribed)
}

func TestUnsubscribeRejectsBadToken(t *testing.T) {
	subs := newStubSubscribers()
	srv := testServer(&stubCampaigns{}, subs)
	defer srv.Close()

	_, err := subs.Subscribe(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/unsubscribe/?email=ada%40example.com&token=wrong")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, subs.subs["ada@example.com"].Unsubscribed)
}

func TestSubmitCampaignEndpoint(t *testing.T) {
	c := &domain.Campaign{ID: uuid.New(), Slug: "weekly-1"}
	campaigns := &stubCampaigns{campaign: c}
	srv := testServer(campaigns, newStubSubscribers())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/campaigns/"+c.ID.String()+"/submit", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []uuid.UUID{c.ID}, campaigns.submitted)

	var body domain.Campaign
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Prepared)
}

func TestSubmitCampaignConflictsOnResubmission(t *testing.T) {
	c := &domain.Campaign{ID: uuid.New(), Slug: "weekly-1"}
	campaigns := &stubCampaigns{campaign: c, submitErr: campaign.ErrAlreadySubmitted}
	srv := testServer(campaigns, newStubSubscribers())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/campaigns/"+c.ID.String()+"/submit", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestImportSubscribersEndpoint(t *testing.T) {
	subs := newStubSubscribers()
	srv := testServer(&stubCampaigns{}, subs)
	defer srv.Close()

	csv := "name,email\nAda,ada@example.com\nGrace,grace@example.com\n"
	resp, err := http.Post(srv.URL+"/api/subscribers/import?format=csv", "text/csv",
		strings.NewReader(csv))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, subs.imported, 2)
	assert.Equal(t, "ada@example.com", subs.imported[0].Email)
}

func TestImportSubscribersUnknownFormat(t *testing.T) {
	srv := testServer(&stubCampaigns{}, newStubSubscribers())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/subscribers/import?format=xlsx", "text/plain",
		strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
