package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fundtrack/internal/domain"
)

// permissionService defines the permission management operations used by the
// API handler.
type permissionService interface {
	GrantUserAccess(ctx context.Context, req domain.GrantUserAccessRequest, actor domain.ContextIdentity) (*domain.AccessRecord, error)
	GrantGroupAccess(ctx context.Context, req domain.GrantGroupAccessRequest, actor domain.ContextIdentity) (*domain.AccessRecord, error)
	UpdatePermission(ctx context.Context, recordID string, newLevel domain.AccessLevel, actor domain.ContextIdentity) (*domain.AccessRecord, error)
	RevokeAccess(ctx context.Context, recordID string, actor domain.ContextIdentity) error
	GetPermissionsForCentre(ctx context.Context, centreID string, actor domain.ContextIdentity) ([]domain.AccessRecord, error)
}

// ListPermissions returns every grant on the centre, including the
// designated owner's implicit entry. Owner-only.
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	records, err := h.permissions.GetPermissionsForCentre(r.Context(), chi.URLParam(r, "centreID"), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]accessRecordBody, len(records))
	for i, rec := range records {
		out[i] = accessRecordToAPI(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// GrantUserAccess grants an access level to a user identifier.
func (h *Handler) GrantUserAccess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PrincipalIdentifier string `json:"principal_identifier"`
		AccessLevel         string `json:"access_level"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	rec, err := h.permissions.GrantUserAccess(r.Context(), domain.GrantUserAccessRequest{
		CentreID:            chi.URLParam(r, "centreID"),
		PrincipalIdentifier: body.PrincipalIdentifier,
		Level:               domain.AccessLevel(body.AccessLevel),
	}, identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accessRecordToAPI(*rec))
}

// GrantGroupAccess grants an access level to a directory group or
// distribution list.
func (h *Handler) GrantGroupAccess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PrincipalIdentifier  string `json:"principal_identifier"`
		PrincipalDisplayName string `json:"principal_display_name"`
		PrincipalType        string `json:"principal_type"`
		AccessLevel          string `json:"access_level"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	rec, err := h.permissions.GrantGroupAccess(r.Context(), domain.GrantGroupAccessRequest{
		CentreID:             chi.URLParam(r, "centreID"),
		PrincipalIdentifier:  body.PrincipalIdentifier,
		PrincipalDisplayName: body.PrincipalDisplayName,
		PrincipalType:        body.PrincipalType,
		Level:                domain.AccessLevel(body.AccessLevel),
	}, identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accessRecordToAPI(*rec))
}

// UpdatePermission changes an existing grant's access level.
func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccessLevel string `json:"access_level"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	rec, err := h.permissions.UpdatePermission(r.Context(), chi.URLParam(r, "recordID"),
		domain.AccessLevel(body.AccessLevel), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accessRecordToAPI(*rec))
}

// RevokeAccess hard-deletes a grant.
func (h *Handler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	if err := h.permissions.RevokeAccess(r.Context(), chi.URLParam(r, "recordID"), identity(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
