package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fundtrack/internal/domain"
)

// centreService defines the centre operations used by the API handler.
type centreService interface {
	Create(ctx context.Context, req domain.CreateCentreRequest, actor domain.ContextIdentity) (*domain.ResponsibilityCentre, error)
	Get(ctx context.Context, centreID string, actor domain.ContextIdentity) (*domain.ResponsibilityCentre, error)
	ListVisible(ctx context.Context, actor domain.ContextIdentity, page domain.PageRequest) ([]domain.ResponsibilityCentre, int64, error)
	Deactivate(ctx context.Context, centreID string, actor domain.ContextIdentity) error
}

// CreateCentre creates a responsibility centre owned by the caller.
func (h *Handler) CreateCentre(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	centre, err := h.centres.Create(r.Context(), domain.CreateCentreRequest{Name: body.Name}, identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, centreToAPI(*centre))
}

// GetCentre returns a centre the caller can read.
func (h *Handler) GetCentre(w http.ResponseWriter, r *http.Request) {
	centre, err := h.centres.Get(r.Context(), chi.URLParam(r, "centreID"), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, centreToAPI(*centre))
}

// ListCentres returns the centres visible to the caller.
func (h *Handler) ListCentres(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	centres, total, err := h.centres.ListVisible(r.Context(), identity(r), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]centreBody, len(centres))
	for i, c := range centres {
		out[i] = centreToAPI(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":            out,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}

// DeactivateCentre soft-deactivates a centre.
func (h *Handler) DeactivateCentre(w http.ResponseWriter, r *http.Request) {
	if err := h.centres.Deactivate(r.Context(), chi.URLParam(r, "centreID"), identity(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEffectiveAccess reports the caller's own effective access on a centre.
func (h *Handler) GetEffectiveAccess(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	centreID := chi.URLParam(r, "centreID")

	level, ok, err := h.access.Resolve(r.Context(), centreID, id.Username, id.Groups)
	if err != nil {
		h.writeError(w, err)
		return
	}
	hasAccess, err := h.access.HasAccess(r.Context(), centreID, id.Username, id.Groups)
	if err != nil {
		h.writeError(w, err)
		return
	}

	body := map[string]any{
		"centre_id":  centreID,
		"has_access": hasAccess,
	}
	if ok {
		body["access_level"] = string(level)
	}
	writeJSON(w, http.StatusOK, body)
}
