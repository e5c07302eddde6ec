package domain

import "time"

// FundingItem is a budget line scoped to a responsibility centre. It is a
// representative business entity: its service goes through the access
// resolver on every operation, the way all centre-scoped CRUD does.
type FundingItem struct {
	ID          string
	CentreID    string
	FiscalYear  int
	Description string
	AmountCents int64
	CreatedBy   string // user ID
	Version     int64
	CreatedAt   time.Time
}

// CreateFundingItemRequest holds parameters for creating a funding item.
type CreateFundingItemRequest struct {
	CentreID    string
	FiscalYear  int
	Description string
	AmountCents int64
}

// Validate checks that the request is well-formed.
func (r *CreateFundingItemRequest) Validate() error {
	if r.CentreID == "" {
		return ErrValidation("centre_id is required")
	}
	if r.FiscalYear < 1900 || r.FiscalYear > 3000 {
		return ErrValidation("fiscal_year is out of range")
	}
	if r.Description == "" {
		return ErrValidation("description is required")
	}
	return nil
}

// UpdateFundingItemRequest holds parameters for updating a funding item.
type UpdateFundingItemRequest struct {
	ItemID      string
	Description string
	AmountCents int64
	Version     int64
}

// Validate checks that the request is well-formed.
func (r *UpdateFundingItemRequest) Validate() error {
	if r.ItemID == "" {
		return ErrValidation("item_id is required")
	}
	if r.Description == "" {
		return ErrValidation("description is required")
	}
	return nil
}
