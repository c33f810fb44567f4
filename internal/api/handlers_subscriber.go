package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/addressimport"
	"github.com/ignite/newsletter-engine/internal/pkg/httputil"
	"github.com/ignite/newsletter-engine/internal/service/subscriber"
)

// Subscribe registers an email address.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}

	sub, err := h.subscribers.Subscribe(r.Context(), input.Email, input.Name)
	switch {
	case errors.Is(err, subscriber.ErrInvalidEmail):
		httputil.BadRequest(w, "invalid email address")
	case errors.Is(err, subscriber.ErrAlreadySubscribed):
		httputil.Conflict(w, "email is already subscribed")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.Created(w, sub)
	}
}

// Unsubscribe opts an address out. This endpoint is linked from message
// footers, so it takes query parameters and tolerates repeat clicks.
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		httputil.BadRequest(w, "email and token are required")
		return
	}

	err := h.subscribers.Unsubscribe(r.Context(), email, token)
	switch {
	case errors.Is(err, subscriber.ErrNotFound), errors.Is(err, subscriber.ErrTokenMismatch):
		// One message for both cases; the endpoint is public.
		httputil.BadRequest(w, "unsubscribe link is not valid")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, map[string]string{"status": "unsubscribed"})
	}
}

// ListSubscribers returns directory entries.
func (h *Handlers) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	f := subscriber.ListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("unsubscribed"); v != "" {
		b := v == "true"
		f.Unsubscribed = &b
	}

	items, total, err := h.subscribers.List(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"subscribers": items, "total": total})
}

// ImportSubscribers bulk-creates subscribers from an uploaded address
// file. The format query selects the parser; ignore_errors drops invalid
// entries instead of failing the import.
func (h *Handlers) ImportSubscribers(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	ignoreErrors := r.URL.Query().Get("ignore_errors") == "true"

	addrs, err := addressimport.Parse(r.Body, format, ignoreErrors)
	if err != nil {
		if errors.Is(err, addressimport.ErrUnknownFormat) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.BadRequest(w, "parse import: "+err.Error())
		return
	}

	res, err := h.subscribers.Import(r.Context(), addrs)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, res)
}

// ListSegments returns all segments.
func (h *Handlers) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.subscribers.Segments(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"segments": segments})
}

// CreateSegment creates a named segment.
func (h *Handlers) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name      string      `json:"name"`
		MemberIDs []uuid.UUID `json:"member_ids"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}

	seg, err := h.subscribers.CreateSegment(r.Context(), input.Name, input.MemberIDs)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, seg)
}

// SetSegmentMembers replaces a segment's membership.
func (h *Handlers) SetSegmentMembers(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid segment id")
		return
	}

	var input struct {
		MemberIDs []uuid.UUID `json:"member_ids"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}

	err = h.subscribers.SetSegmentMembers(r.Context(), id, input.MemberIDs)
	switch {
	case errors.Is(err, subscriber.ErrSegmentNotFound):
		httputil.NotFound(w, "segment not found")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.NoContent(w)
	}
}
