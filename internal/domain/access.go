package domain

import "time"

// Access level constants, totally ordered: READ_ONLY < READ_WRITE < OWNER.
const (
	LevelReadOnly  = "READ_ONLY"
	LevelReadWrite = "READ_WRITE"
	LevelOwner     = "OWNER"
)

// Principal type constants. GROUP and DISTRIBUTION_LIST grantees are opaque
// directory identifiers; USER grantees may or may not have a local account.
const (
	PrincipalUser             = "USER"
	PrincipalGroup            = "GROUP"
	PrincipalDistributionList = "DISTRIBUTION_LIST"
)

// AccessLevel is one of the Level* constants.
type AccessLevel string

// Rank returns the ordering of the level (OWNER=3 > READ_WRITE=2 > READ_ONLY=1).
// Unknown levels rank 0.
func (l AccessLevel) Rank() int {
	switch l {
	case LevelOwner:
		return 3
	case LevelReadWrite:
		return 2
	case LevelReadOnly:
		return 1
	default:
		return 0
	}
}

// Valid reports whether l is a known access level.
func (l AccessLevel) Valid() bool { return l.Rank() > 0 }

// AtLeast reports whether l grants at least the given level.
func (l AccessLevel) AtLeast(other AccessLevel) bool { return l.Rank() >= other.Rank() }

// ValidPrincipalType reports whether t is a known principal type.
func ValidPrincipalType(t string) bool {
	return t == PrincipalUser || t == PrincipalGroup || t == PrincipalDistributionList
}

// AccessRecord is one persisted grant of an access level to a principal on a
// responsibility centre.
//
// Exactly one principal representation is populated: UserID when the grantee
// has a local account, or PrincipalIdentifier (+ PrincipalDisplayName) when
// the grantee is known only to the external directory.
type AccessRecord struct {
	ID                   string
	CentreID             string
	UserID               *string
	PrincipalIdentifier  *string
	PrincipalDisplayName *string
	PrincipalType        string
	Level                AccessLevel
	GrantedBy            *string // user ID of the granting owner; nil for seeded records
	Version              int64
	CreatedAt            time.Time

	// Implicit marks a record synthesized at query time for the centre's
	// designated owner when no explicit OWNER record exists. Implicit records
	// are never persisted and cannot be mutated.
	Implicit bool
}

// Identity returns the record's normalized principal identity: the local user
// ID for FK-backed records, otherwise the directory identifier.
func (r *AccessRecord) Identity() string {
	if r.UserID != nil {
		return *r.UserID
	}
	if r.PrincipalIdentifier != nil {
		return *r.PrincipalIdentifier
	}
	return ""
}

// DirectoryPrincipal is the result of a directory lookup at grant time.
type DirectoryPrincipal struct {
	Identifier  string
	DisplayName string
}

// GrantUserAccessRequest holds parameters for granting access to a user
// identified by a free-text identifier (local username or directory ID).
type GrantUserAccessRequest struct {
	CentreID            string
	PrincipalIdentifier string
	Level               AccessLevel
}

// Validate checks that the request is well-formed.
func (r *GrantUserAccessRequest) Validate() error {
	if r.CentreID == "" {
		return ErrValidation("centre_id is required")
	}
	if r.PrincipalIdentifier == "" {
		return ErrValidation("principal_identifier is required")
	}
	if !r.Level.Valid() {
		return ErrValidation("access_level must be READ_ONLY, READ_WRITE, or OWNER")
	}
	return nil
}

// GrantGroupAccessRequest holds parameters for granting access to a directory
// group or distribution list.
type GrantGroupAccessRequest struct {
	CentreID             string
	PrincipalIdentifier  string
	PrincipalDisplayName string
	PrincipalType        string // GROUP or DISTRIBUTION_LIST
	Level                AccessLevel
}

// Validate checks that the request is well-formed.
func (r *GrantGroupAccessRequest) Validate() error {
	if r.CentreID == "" {
		return ErrValidation("centre_id is required")
	}
	if r.PrincipalIdentifier == "" {
		return ErrValidation("principal_identifier is required")
	}
	if r.PrincipalType != PrincipalGroup && r.PrincipalType != PrincipalDistributionList {
		return ErrValidation("principal_type must be GROUP or DISTRIBUTION_LIST")
	}
	if !r.Level.Valid() {
		return ErrValidation("access_level must be READ_ONLY, READ_WRITE, or OWNER")
	}
	return nil
}
