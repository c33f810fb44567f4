package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/pkg/httputil"
	"github.com/ignite/newsletter-engine/internal/repository/postgres"
)

// ListNewsletters returns all newsletters.
func (h *Handlers) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsletters.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"newsletters": items})
}

// GetNewsletter returns one newsletter.
func (h *Handlers) GetNewsletter(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid newsletter id")
		return
	}
	n, err := h.newsletters.NewsletterByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrNewsletterNotFound) {
			httputil.NotFound(w, "newsletter not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, n)
}

// CreateNewsletter creates a newsletter.
func (h *Handlers) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Subject string `json:"subject"`
		Content string `json:"content"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	if input.Subject == "" {
		httputil.BadRequest(w, "subject is required")
		return
	}

	n := &domain.Newsletter{ID: uuid.New(), Subject: input.Subject, Content: input.Content}
	if err := h.newsletters.Create(r.Context(), n); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, n)
}

// UpdateNewsletter replaces subject and content.
func (h *Handlers) UpdateNewsletter(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid newsletter id")
		return
	}

	var input struct {
		Subject string `json:"subject"`
		Content string `json:"content"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}

	n := &domain.Newsletter{ID: id, Subject: input.Subject, Content: input.Content}
	if err := h.newsletters.Update(r.Context(), n); err != nil {
		if errors.Is(err, postgres.ErrNewsletterNotFound) {
			httputil.NotFound(w, "newsletter not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, n)
}
