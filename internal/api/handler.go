// Package api exposes the HTTP surface of the budget tracker: centre
// management, the permission management endpoints, and centre-scoped
// business resources.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fundtrack/internal/domain"
)

// Handler holds the services the HTTP layer delegates to.
type Handler struct {
	centres     centreService
	permissions permissionService
	access      domain.AccessChecker
	funding     fundingItemService
	logger      *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	centres centreService,
	permissions permissionService,
	access domain.AccessChecker,
	funding fundingItemService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		centres:     centres,
		permissions: permissions,
		access:      access,
		funding:     funding,
		logger:      logger,
	}
}

// Routes mounts all authenticated endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/centres", func(r chi.Router) {
		r.Get("/", h.ListCentres)
		r.Post("/", h.CreateCentre)
		r.Route("/{centreID}", func(r chi.Router) {
			r.Get("/", h.GetCentre)
			r.Delete("/", h.DeactivateCentre)
			r.Get("/access", h.GetEffectiveAccess)
			r.Get("/permissions", h.ListPermissions)
			r.Post("/permissions/users", h.GrantUserAccess)
			r.Post("/permissions/groups", h.GrantGroupAccess)
			r.Get("/funding-items", h.ListFundingItems)
			r.Post("/funding-items", h.CreateFundingItem)
		})
	})
	r.Route("/permissions/{recordID}", func(r chi.Router) {
		r.Patch("/", h.UpdatePermission)
		r.Delete("/", h.RevokeAccess)
	})
	r.Route("/funding-items/{itemID}", func(r chi.Router) {
		r.Patch("/", h.UpdateFundingItem)
		r.Delete("/", h.DeleteFundingItem)
	})
}

// identity pulls the authenticated identity set by the auth middleware.
func identity(r *http.Request) domain.ContextIdentity {
	id, _ := domain.IdentityFromContext(r.Context())
	return id
}

// pageFromQuery extracts pagination parameters from the query string.
func pageFromQuery(r *http.Request) domain.PageRequest {
	q := r.URL.Query()
	p := domain.PageRequest{PageToken: q.Get("page_token")}
	if v := q.Get("max_results"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		writeJSON(w, status, errorBody{Code: status, Message: "internal server error"})
		return
	}
	writeJSON(w, status, errorBody{Code: status, Message: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "malformed JSON body"})
		return false
	}
	return true
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// === Wire representations ===

type centreBody struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"designated_owner_id"`
	Active    bool      `json:"active"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

func centreToAPI(c domain.ResponsibilityCentre) centreBody {
	return centreBody{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.DesignatedOwnerID,
		Active:    c.Active,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
	}
}

type accessRecordBody struct {
	ID                   string    `json:"id,omitempty"`
	CentreID             string    `json:"centre_id"`
	UserID               *string   `json:"user_id,omitempty"`
	PrincipalIdentifier  *string   `json:"principal_identifier,omitempty"`
	PrincipalDisplayName *string   `json:"principal_display_name,omitempty"`
	PrincipalType        string    `json:"principal_type"`
	AccessLevel          string    `json:"access_level"`
	GrantedBy            *string   `json:"granted_by,omitempty"`
	Version              int64     `json:"version"`
	Implicit             bool      `json:"implicit,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

func accessRecordToAPI(rec domain.AccessRecord) accessRecordBody {
	return accessRecordBody{
		ID:                   rec.ID,
		CentreID:             rec.CentreID,
		UserID:               rec.UserID,
		PrincipalIdentifier:  rec.PrincipalIdentifier,
		PrincipalDisplayName: rec.PrincipalDisplayName,
		PrincipalType:        rec.PrincipalType,
		AccessLevel:          string(rec.Level),
		GrantedBy:            rec.GrantedBy,
		Version:              rec.Version,
		Implicit:             rec.Implicit,
		CreatedAt:            rec.CreatedAt,
	}
}

type fundingItemBody struct {
	ID          string    `json:"id"`
	CentreID    string    `json:"centre_id"`
	FiscalYear  int       `json:"fiscal_year"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	CreatedBy   string    `json:"created_by"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

func fundingItemToAPI(f domain.FundingItem) fundingItemBody {
	return fundingItemBody{
		ID:          f.ID,
		CentreID:    f.CentreID,
		FiscalYear:  f.FiscalYear,
		Description: f.Description,
		AmountCents: f.AmountCents,
		CreatedBy:   f.CreatedBy,
		Version:     f.Version,
		CreatedAt:   f.CreatedAt,
	}
}
