// Package api exposes the newsletter engine over HTTP: self-service
// subscribe and unsubscribe endpoints plus the management API for
// newsletters, segments, and campaigns.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/addressimport"
	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/service/campaign"
	"github.com/ignite/newsletter-engine/internal/service/subscriber"
)

// CampaignService is the campaign surface the handlers need.
type CampaignService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error)
	Create(ctx context.Context, input campaign.CreateInput) (*domain.Campaign, error)
	Update(ctx context.Context, id uuid.UUID, u campaign.UpdateFields) (*domain.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Submit(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
}

// SubscriberService is the directory surface the handlers need.
type SubscriberService interface {
	Subscribe(ctx context.Context, email, name string) (*domain.Subscriber, error)
	Unsubscribe(ctx context.Context, email, token string) error
	List(ctx context.Context, f subscriber.ListFilter) ([]domain.Subscriber, int, error)
	Import(ctx context.Context, addrs []addressimport.Address) (*subscriber.ImportResult, error)
	Segments(ctx context.Context) ([]domain.Segment, error)
	CreateSegment(ctx context.Context, name string, memberIDs []uuid.UUID) (*domain.Segment, error)
	SetSegmentMembers(ctx context.Context, id uuid.UUID, memberIDs []uuid.UUID) error
}

// NewsletterStore is the newsletter persistence surface the handlers need.
type NewsletterStore interface {
	NewsletterByID(ctx context.Context, id uuid.UUID) (*domain.Newsletter, error)
	List(ctx context.Context) ([]domain.Newsletter, error)
	Create(ctx context.Context, n *domain.Newsletter) error
	Update(ctx context.Context, n *domain.Newsletter) error
}

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	campaigns   CampaignService
	subscribers SubscriberService
	newsletters NewsletterStore
}

// NewHandlers creates the handler set.
func NewHandlers(campaigns CampaignService, subscribers SubscriberService, newsletters NewsletterStore) *Handlers {
	return &Handlers{campaigns: campaigns, subscribers: subscribers, newsletters: newsletters}
}

// Router builds the HTTP routing table.
func (h *Handlers) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	// Public self-service endpoints linked from delivered messages.
	r.Post("/subscribe", h.Subscribe)
	r.Get("/unsubscribe/", h.Unsubscribe)
	r.Get("/unsubscribe", h.Unsubscribe)

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Put("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)
				r.Post("/submit", h.SubmitCampaign)
			})
		})

		r.Route("/subscribers", func(r chi.Router) {
			r.Get("/", h.ListSubscribers)
			r.Post("/import", h.ImportSubscribers)
		})

		r.Route("/segments", func(r chi.Router) {
			r.Get("/", h.ListSegments)
			r.Post("/", h.CreateSegment)
			r.Put("/{id}/members", h.SetSegmentMembers)
		})

		r.Route("/newsletters", func(r chi.Router) {
			r.Get("/", h.ListNewsletters)
			r.Post("/", h.CreateNewsletter)
			r.Get("/{id}", h.GetNewsletter)
			r.Put("/{id}", h.UpdateNewsletter)
		})
	})

	return r
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
