package domain

import "context"

// UserRepository provides read access to local user accounts plus the
// creation path used by seeding and the admin CLI.
type UserRepository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByUsername returns (nil, nil) when no local account matches: a
	// missing local account is an expected state for directory-only
	// principals, not an error.
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, page PageRequest) ([]User, int64, error)
}

// CentreRepository persists responsibility centres.
type CentreRepository interface {
	Create(ctx context.Context, c *ResponsibilityCentre) (*ResponsibilityCentre, error)
	GetByID(ctx context.Context, id string) (*ResponsibilityCentre, error)
	GetByName(ctx context.Context, name string) (*ResponsibilityCentre, error)
	List(ctx context.Context, page PageRequest) ([]ResponsibilityCentre, int64, error)
	// Deactivate soft-deactivates the centre under its version counter.
	Deactivate(ctx context.Context, id string, version int64) error
}

// AccessRecordRepository persists grants. Mutations are guarded by an
// optimistic version counter: a write against a stale version returns
// ConcurrentModificationError.
type AccessRecordRepository interface {
	Create(ctx context.Context, r *AccessRecord) (*AccessRecord, error)
	GetByID(ctx context.Context, id string) (*AccessRecord, error)
	// ListForCentre returns every grant on the centre. The resolver and the
	// ownership guard both operate on this single fresh read.
	ListForCentre(ctx context.Context, centreID string) ([]AccessRecord, error)
	UpdateLevel(ctx context.Context, id string, level AccessLevel, version int64) error
	Delete(ctx context.Context, id string, version int64) error
}

// FundingItemRepository persists budget lines.
type FundingItemRepository interface {
	Create(ctx context.Context, f *FundingItem) (*FundingItem, error)
	GetByID(ctx context.Context, id string) (*FundingItem, error)
	ListForCentre(ctx context.Context, centreID string, page PageRequest) ([]FundingItem, int64, error)
	Update(ctx context.Context, id string, description string, amountCents int64, version int64) error
	Delete(ctx context.Context, id string, version int64) error
}

// DirectoryValidator is the external directory collaborator, consulted only
// at grant time to confirm an identifier names a real directory principal.
// Search returns (nil, nil) when the identifier is unknown.
type DirectoryValidator interface {
	Search(ctx context.Context, identifier string) (*DirectoryPrincipal, error)
}

// AccessChecker is the read-path contract business services depend on.
type AccessChecker interface {
	Resolve(ctx context.Context, centreID, username string, groups []string) (AccessLevel, bool, error)
	HasAccess(ctx context.Context, centreID, username string, groups []string) (bool, error)
	HasWriteAccess(ctx context.Context, centreID, username string, groups []string) (bool, error)
	IsOwner(ctx context.Context, centreID, username string, groups []string) (bool, error)
}
