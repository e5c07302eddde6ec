package service

import (
	"context"
	"log/slog"

	"fundtrack/internal/domain"
)

// FundingItemService manages budget lines on a centre. It is the template
// for every centre-scoped business service: read operations require
// HasAccess, mutations require HasWriteAccess.
type FundingItemService struct {
	items  domain.FundingItemRepository
	users  domain.UserRepository
	access domain.AccessChecker
	logger *slog.Logger
}

// NewFundingItemService creates a new FundingItemService.
func NewFundingItemService(items domain.FundingItemRepository, users domain.UserRepository, access domain.AccessChecker, logger *slog.Logger) *FundingItemService {
	return &FundingItemService{items: items, users: users, access: access, logger: logger}
}

func (s *FundingItemService) requireWrite(ctx context.Context, centreID string, actor domain.ContextIdentity) error {
	ok, err := s.access.HasWriteAccess(ctx, centreID, actor.Username, actor.Groups)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("user %q cannot modify this centre", actor.Username)
	}
	return nil
}

// Create adds a funding item to the centre.
func (s *FundingItemService) Create(ctx context.Context, req domain.CreateFundingItemRequest, actor domain.ContextIdentity) (*domain.FundingItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, req.CentreID, actor); err != nil {
		return nil, err
	}
	creator, err := s.users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, domain.ErrValidation("user %q has no local account", actor.Username)
	}

	item, err := s.items.Create(ctx, &domain.FundingItem{
		CentreID:    req.CentreID,
		FiscalYear:  req.FiscalYear,
		Description: req.Description,
		AmountCents: req.AmountCents,
		CreatedBy:   creator.ID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("funding item created", "centre_id", req.CentreID, "item_id", item.ID, "by", actor.Username)
	return item, nil
}

// ListForCentre returns the centre's funding items if the actor can read it.
func (s *FundingItemService) ListForCentre(ctx context.Context, centreID string, actor domain.ContextIdentity, page domain.PageRequest) ([]domain.FundingItem, int64, error) {
	ok, err := s.access.HasAccess(ctx, centreID, actor.Username, actor.Groups)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, domain.ErrAccessDenied("user %q has no access to this centre", actor.Username)
	}
	return s.items.ListForCentre(ctx, centreID, page)
}

// Update rewrites a funding item under its version counter.
func (s *FundingItemService) Update(ctx context.Context, req domain.UpdateFundingItemRequest, actor domain.ContextIdentity) (*domain.FundingItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	item, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, item.CentreID, actor); err != nil {
		return nil, err
	}
	version := req.Version
	if version == 0 {
		version = item.Version
	}
	if err := s.items.Update(ctx, item.ID, req.Description, req.AmountCents, version); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, item.ID)
}

// Delete removes a funding item.
func (s *FundingItemService) Delete(ctx context.Context, itemID string, actor domain.ContextIdentity) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.requireWrite(ctx, item.CentreID, actor); err != nil {
		return err
	}
	return s.items.Delete(ctx, item.ID, item.Version)
}
