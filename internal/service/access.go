// Package service contains the business logic of the budget tracker. The
// access and permission services form the authorization core; the remaining
// services are centre-scoped CRUD that consults that core on every operation.
package service

import (
	"context"
	"fmt"

	"fundtrack/internal/domain"
)

// AccessService computes a user's effective access level on a responsibility
// centre by reconciling four independent sources of grant: the centre's
// designated-owner field, direct user-backed records, directory-identifier
// records matching the username, and records matching the caller-supplied
// group identifiers.
type AccessService struct {
	centres domain.CentreRepository
	users   domain.UserRepository
	records domain.AccessRecordRepository
}

var _ domain.AccessChecker = (*AccessService)(nil)

// NewAccessService creates a new AccessService backed by domain repositories.
func NewAccessService(
	centres domain.CentreRepository,
	users domain.UserRepository,
	records domain.AccessRecordRepository,
) *AccessService {
	return &AccessService{centres: centres, users: users, records: records}
}

// Resolve returns the highest access level the user holds on the centre.
// The boolean is false when the user holds no access at all. An absent centre
// resolves to no access rather than an error; callers that need to
// distinguish "not found" check the centre upstream.
//
// Group identifiers are facts asserted by the authentication layer; no
// membership verification happens here.
func (s *AccessService) Resolve(ctx context.Context, centreID, username string, groups []string) (domain.AccessLevel, bool, error) {
	centre, err := s.centres.GetByID(ctx, centreID)
	if err != nil {
		if _, notFound := err.(*domain.NotFoundError); notFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load centre %s: %w", centreID, err)
	}

	// The username joins the identifier set so directory-USER records keyed
	// by identifier match local users too.
	identifiers := make(map[string]bool, len(groups)+1)
	for _, g := range groups {
		identifiers[g] = true
	}
	identifiers[username] = true

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", false, fmt.Errorf("lookup user %q: %w", username, err)
	}

	// Designated ownership short-circuits: nothing outranks OWNER.
	if user != nil && user.ID == centre.DesignatedOwnerID {
		return domain.LevelOwner, true, nil
	}

	records, err := s.records.ListForCentre(ctx, centreID)
	if err != nil {
		return "", false, fmt.Errorf("list access records for centre %s: %w", centreID, err)
	}

	best := domain.AccessLevel("")
	for i := range records {
		rec := &records[i]
		if !s.recordMatches(rec, user, identifiers) {
			continue
		}
		if rec.Level.Rank() > best.Rank() {
			best = rec.Level
		}
	}
	if best == "" {
		return "", false, nil
	}
	return best, true, nil
}

// recordMatches reports whether the grant applies to the caller: either a
// direct reference to their local account, or a directory identifier inside
// the caller's identifier set.
func (s *AccessService) recordMatches(rec *domain.AccessRecord, user *domain.User, identifiers map[string]bool) bool {
	if rec.UserID != nil {
		return user != nil && *rec.UserID == user.ID
	}
	if rec.PrincipalIdentifier != nil {
		return identifiers[*rec.PrincipalIdentifier]
	}
	return false
}

// HasAccess reports whether the user can read the centre. The demo centre is
// readable by every authenticated user regardless of grants.
func (s *AccessService) HasAccess(ctx context.Context, centreID, username string, groups []string) (bool, error) {
	centre, err := s.centres.GetByID(ctx, centreID)
	if err != nil {
		if _, notFound := err.(*domain.NotFoundError); notFound {
			return false, nil
		}
		return false, err
	}
	if centre.IsDemo() {
		return true, nil
	}
	_, ok, err := s.Resolve(ctx, centreID, username, groups)
	return ok, err
}

// HasWriteAccess reports whether the user resolves to READ_WRITE or OWNER.
func (s *AccessService) HasWriteAccess(ctx context.Context, centreID, username string, groups []string) (bool, error) {
	level, ok, err := s.Resolve(ctx, centreID, username, groups)
	if err != nil || !ok {
		return false, err
	}
	return level.AtLeast(domain.LevelReadWrite), nil
}

// IsOwner reports whether the user resolves to OWNER.
func (s *AccessService) IsOwner(ctx context.Context, centreID, username string, groups []string) (bool, error) {
	level, ok, err := s.Resolve(ctx, centreID, username, groups)
	if err != nil || !ok {
		return false, err
	}
	return level == domain.LevelOwner, nil
}
