package service

import (
	"context"
	"log/slog"

	"fundtrack/internal/domain"
)

// CentreService manages responsibility centre lifecycle. The creator becomes
// the centre's designated owner; centres are soft-deactivated, never deleted,
// while access records exist.
type CentreService struct {
	centres domain.CentreRepository
	users   domain.UserRepository
	access  *AccessService
	logger  *slog.Logger
}

// NewCentreService creates a new CentreService.
func NewCentreService(centres domain.CentreRepository, users domain.UserRepository, access *AccessService, logger *slog.Logger) *CentreService {
	return &CentreService{centres: centres, users: users, access: access, logger: logger}
}

// Create creates a centre with the actor as designated owner. The actor must
// have a local account: designated ownership is a strong user reference.
func (s *CentreService) Create(ctx context.Context, req domain.CreateCentreRequest, actor domain.ContextIdentity) (*domain.ResponsibilityCentre, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Name == domain.DemoCentreName {
		return nil, domain.ErrValidation("%q is a reserved centre name", domain.DemoCentreName)
	}
	owner, err := s.users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, domain.ErrValidation("user %q has no local account and cannot own a centre", actor.Username)
	}

	centre, err := s.centres.Create(ctx, &domain.ResponsibilityCentre{
		Name:              req.Name,
		DesignatedOwnerID: owner.ID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("centre created", "centre_id", centre.ID, "name", centre.Name, "owner", actor.Username)
	return centre, nil
}

// Get returns the centre if the actor can read it.
func (s *CentreService) Get(ctx context.Context, centreID string, actor domain.ContextIdentity) (*domain.ResponsibilityCentre, error) {
	centre, err := s.centres.GetByID(ctx, centreID)
	if err != nil {
		return nil, err
	}
	ok, err := s.access.HasAccess(ctx, centreID, actor.Username, actor.Groups)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccessDenied("user %q has no access to this centre", actor.Username)
	}
	return centre, nil
}

// ListVisible returns the centres the actor can read.
func (s *CentreService) ListVisible(ctx context.Context, actor domain.ContextIdentity, page domain.PageRequest) ([]domain.ResponsibilityCentre, int64, error) {
	centres, _, err := s.centres.List(ctx, domain.PageRequest{MaxResults: domain.MaxPageSize})
	if err != nil {
		return nil, 0, err
	}

	var visible []domain.ResponsibilityCentre
	for _, c := range centres {
		ok, err := s.access.HasAccess(ctx, c.ID, actor.Username, actor.Groups)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			visible = append(visible, c)
		}
	}

	total := int64(len(visible))
	start := page.Offset()
	if start > len(visible) {
		start = len(visible)
	}
	end := start + page.Limit()
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], total, nil
}

// Deactivate soft-deactivates a centre. Only the centre's owners may do this,
// and the demo centre is exempt.
func (s *CentreService) Deactivate(ctx context.Context, centreID string, actor domain.ContextIdentity) error {
	centre, err := s.centres.GetByID(ctx, centreID)
	if err != nil {
		return err
	}
	if centre.IsDemo() {
		return domain.ErrInvariant("the %s centre cannot be deactivated", domain.DemoCentreName)
	}
	ok, err := s.access.IsOwner(ctx, centreID, actor.Username, actor.Groups)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("user %q is not an owner of this centre", actor.Username)
	}
	if err := s.centres.Deactivate(ctx, centreID, centre.Version); err != nil {
		return err
	}
	s.logger.Info("centre deactivated", "centre_id", centreID, "by", actor.Username)
	return nil
}
