package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fundtrack/internal/domain"
)

// fundingItemService defines the funding item operations used by the API
// handler.
type fundingItemService interface {
	Create(ctx context.Context, req domain.CreateFundingItemRequest, actor domain.ContextIdentity) (*domain.FundingItem, error)
	ListForCentre(ctx context.Context, centreID string, actor domain.ContextIdentity, page domain.PageRequest) ([]domain.FundingItem, int64, error)
	Update(ctx context.Context, req domain.UpdateFundingItemRequest, actor domain.ContextIdentity) (*domain.FundingItem, error)
	Delete(ctx context.Context, itemID string, actor domain.ContextIdentity) error
}

// CreateFundingItem adds a budget line to a centre.
func (h *Handler) CreateFundingItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FiscalYear  int    `json:"fiscal_year"`
		Description string `json:"description"`
		AmountCents int64  `json:"amount_cents"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	item, err := h.funding.Create(r.Context(), domain.CreateFundingItemRequest{
		CentreID:    chi.URLParam(r, "centreID"),
		FiscalYear:  body.FiscalYear,
		Description: body.Description,
		AmountCents: body.AmountCents,
	}, identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fundingItemToAPI(*item))
}

// ListFundingItems returns a centre's budget lines.
func (h *Handler) ListFundingItems(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	items, total, err := h.funding.ListForCentre(r.Context(), chi.URLParam(r, "centreID"), identity(r), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]fundingItemBody, len(items))
	for i, f := range items {
		out[i] = fundingItemToAPI(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":            out,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}

// UpdateFundingItem rewrites a budget line.
func (h *Handler) UpdateFundingItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
		AmountCents int64  `json:"amount_cents"`
		Version     int64  `json:"version"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	item, err := h.funding.Update(r.Context(), domain.UpdateFundingItemRequest{
		ItemID:      chi.URLParam(r, "itemID"),
		Description: body.Description,
		AmountCents: body.AmountCents,
		Version:     body.Version,
	}, identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fundingItemToAPI(*item))
}

// DeleteFundingItem removes a budget line.
func (h *Handler) DeleteFundingItem(w http.ResponseWriter, r *http.Request) {
	if err := h.funding.Delete(r.Context(), chi.URLParam(r, "itemID"), identity(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
