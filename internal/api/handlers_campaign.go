package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/pkg/httputil"
	"github.com/ignite/newsletter-engine/internal/service/campaign"
)

func campaignID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid campaign id")
		return uuid.Nil, false
	}
	return id, true
}

// writeCampaignError maps service errors onto HTTP statuses.
func writeCampaignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrSlugTaken),
		errors.Is(err, campaign.ErrDuplicatePublish),
		errors.Is(err, campaign.ErrAlreadySubmitted),
		errors.Is(err, campaign.ErrAlreadySent),
		errors.Is(err, campaign.ErrLocked):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// ListCampaigns returns campaigns with optional prepared/sent filters.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	f := campaign.ListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("prepared"); v != "" {
		b := v == "true"
		f.Prepared = &b
	}
	if v := r.URL.Query().Get("sent"); v != "" {
		b := v == "true"
		f.Sent = &b
	}

	items, total, err := h.campaigns.List(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"campaigns": items, "total": total})
}

// GetCampaign returns one campaign.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httputil.OK(w, c)
}

// CreateCampaign creates a campaign.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	c, err := h.campaigns.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, campaign.ErrSlugTaken) || errors.Is(err, campaign.ErrDuplicatePublish) {
			writeCampaignError(w, err)
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, c)
}

// UpdateCampaign applies a partial update.
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	var u campaign.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	c, err := h.campaigns.Update(r.Context(), id, u)
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httputil.OK(w, c)
}

// DeleteCampaign removes a campaign.
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	if err := h.campaigns.Delete(r.Context(), id); err != nil {
		writeCampaignError(w, err)
		return
	}
	httputil.NoContent(w)
}

// SubmitCampaign marks a campaign prepared. The queue sends it once the
// publish date passes; resubmission of a prepared or sent campaign is
// rejected with a conflict.
func (h *Handlers) SubmitCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.campaigns.Submit(r.Context(), id)
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httputil.OK(w, c)
}
