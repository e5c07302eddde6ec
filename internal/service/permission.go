package service

import (
	"context"
	"fmt"
	"log/slog"

	"fundtrack/internal/domain"
)

// PermissionService implements the permission mutation API: granting,
// updating, and revoking access on a responsibility centre. Every mutation
// re-resolves the caller's own authority (only owners mutate), applies the
// ownership invariant guard, and writes through versioned repository calls.
type PermissionService struct {
	centres   domain.CentreRepository
	users     domain.UserRepository
	records   domain.AccessRecordRepository
	access    *AccessService
	directory domain.DirectoryValidator
	logger    *slog.Logger
}

// NewPermissionService creates a new PermissionService.
func NewPermissionService(
	centres domain.CentreRepository,
	users domain.UserRepository,
	records domain.AccessRecordRepository,
	access *AccessService,
	directory domain.DirectoryValidator,
	logger *slog.Logger,
) *PermissionService {
	return &PermissionService{
		centres:   centres,
		users:     users,
		records:   records,
		access:    access,
		directory: directory,
		logger:    logger,
	}
}

// withImplicitOwner returns the centre's grants plus a synthesized OWNER
// record for the designated owner when no explicit one exists. Counting
// owners over this single list is what keeps the invariant checks simple.
func withImplicitOwner(centre *domain.ResponsibilityCentre, records []domain.AccessRecord) []domain.AccessRecord {
	for i := range records {
		if records[i].UserID != nil && *records[i].UserID == centre.DesignatedOwnerID &&
			records[i].Level == domain.LevelOwner {
			return records
		}
	}
	ownerID := centre.DesignatedOwnerID
	implicit := domain.AccessRecord{
		CentreID:      centre.ID,
		UserID:        &ownerID,
		PrincipalType: domain.PrincipalUser,
		Level:         domain.LevelOwner,
		CreatedAt:     centre.CreatedAt,
		Implicit:      true,
	}
	return append([]domain.AccessRecord{implicit}, records...)
}

// effectiveOwnerCount counts OWNER-level entries including the designated
// owner's implicit one.
func effectiveOwnerCount(centre *domain.ResponsibilityCentre, records []domain.AccessRecord) int {
	count := 0
	for _, rec := range withImplicitOwner(centre, records) {
		if rec.Level == domain.LevelOwner {
			count++
		}
	}
	return count
}

// loadCentreForMutation loads the centre and rejects mutation on the demo
// centre, which is immutable with respect to permissions.
func (s *PermissionService) loadCentreForMutation(ctx context.Context, centreID string) (*domain.ResponsibilityCentre, error) {
	centre, err := s.centres.GetByID(ctx, centreID)
	if err != nil {
		return nil, err
	}
	if centre.IsDemo() {
		return nil, domain.ErrInvariant("permissions on the %s centre cannot be changed", domain.DemoCentreName)
	}
	return centre, nil
}

// requireOwner rejects the mutation unless the actor resolves to OWNER.
func (s *PermissionService) requireOwner(ctx context.Context, centreID string, actor domain.ContextIdentity) error {
	ok, err := s.access.IsOwner(ctx, centreID, actor.Username, actor.Groups)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("user %q is not an owner of this centre", actor.Username)
	}
	return nil
}

// grantedByID resolves the actor to a local user ID for the granted_by
// column. Directory-only owners leave it unset.
func (s *PermissionService) grantedByID(ctx context.Context, actor domain.ContextIdentity) (*string, error) {
	u, err := s.users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &u.ID, nil
}

// duplicateError differentiates "already has this exact level" from
// "already has a different level" for a clearer management UX. Both are the
// same error kind.
func duplicateError(existing domain.AccessLevel, requested domain.AccessLevel) error {
	if existing == requested {
		return domain.ErrConflict("principal already has %s access on this centre", existing)
	}
	return domain.ErrConflict("principal already has %s access on this centre; update the existing permission instead", existing)
}

// GrantUserAccess grants an access level to a user named by a free-text
// identifier. A matching local username yields a user-backed record;
// otherwise the identifier is validated against the directory and stored as
// an identifier-backed record.
func (s *PermissionService) GrantUserAccess(ctx context.Context, req domain.GrantUserAccessRequest, actor domain.ContextIdentity) (*domain.AccessRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	centre, err := s.loadCentreForMutation(ctx, req.CentreID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, centre.ID, actor); err != nil {
		return nil, err
	}

	records, err := s.records.ListForCentre(ctx, centre.ID)
	if err != nil {
		return nil, err
	}

	grantedBy, err := s.grantedByID(ctx, actor)
	if err != nil {
		return nil, err
	}

	rec := &domain.AccessRecord{
		CentreID:      centre.ID,
		PrincipalType: domain.PrincipalUser,
		Level:         req.Level,
		GrantedBy:     grantedBy,
	}

	local, err := s.users.GetByUsername(ctx, req.PrincipalIdentifier)
	if err != nil {
		return nil, err
	}
	switch {
	case local != nil:
		if local.ID == centre.DesignatedOwnerID {
			return nil, domain.ErrInvariant("the designated owner's access level is fixed and cannot be granted or changed")
		}
		for i := range records {
			if records[i].UserID != nil && *records[i].UserID == local.ID {
				return nil, duplicateError(records[i].Level, req.Level)
			}
		}
		rec.UserID = &local.ID
	default:
		dp, err := s.directory.Search(ctx, req.PrincipalIdentifier)
		if err != nil {
			return nil, fmt.Errorf("directory search for %q: %w", req.PrincipalIdentifier, err)
		}
		if dp == nil {
			return nil, domain.ErrValidation("identifier %q does not resolve to a known user", req.PrincipalIdentifier)
		}
		for i := range records {
			if records[i].PrincipalIdentifier != nil &&
				*records[i].PrincipalIdentifier == dp.Identifier &&
				records[i].PrincipalType == domain.PrincipalUser {
				return nil, duplicateError(records[i].Level, req.Level)
			}
		}
		rec.PrincipalIdentifier = &dp.Identifier
		rec.PrincipalDisplayName = &dp.DisplayName
	}

	created, err := s.records.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.logger.Info("access granted",
		"centre_id", centre.ID,
		"principal", req.PrincipalIdentifier,
		"level", string(req.Level),
		"granted_by", actor.Username)
	return created, nil
}

// GrantGroupAccess grants an access level to a directory group or
// distribution list. The caller supplies the display name obtained from its
// own directory search.
func (s *PermissionService) GrantGroupAccess(ctx context.Context, req domain.GrantGroupAccessRequest, actor domain.ContextIdentity) (*domain.AccessRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	centre, err := s.loadCentreForMutation(ctx, req.CentreID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, centre.ID, actor); err != nil {
		return nil, err
	}

	records, err := s.records.ListForCentre(ctx, centre.ID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].PrincipalIdentifier != nil &&
			*records[i].PrincipalIdentifier == req.PrincipalIdentifier &&
			records[i].PrincipalType == req.PrincipalType {
			return nil, duplicateError(records[i].Level, req.Level)
		}
	}

	grantedBy, err := s.grantedByID(ctx, actor)
	if err != nil {
		return nil, err
	}

	identifier := req.PrincipalIdentifier
	displayName := req.PrincipalDisplayName
	created, err := s.records.Create(ctx, &domain.AccessRecord{
		CentreID:             centre.ID,
		PrincipalIdentifier:  &identifier,
		PrincipalDisplayName: &displayName,
		PrincipalType:        req.PrincipalType,
		Level:                req.Level,
		GrantedBy:            grantedBy,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("group access granted",
		"centre_id", centre.ID,
		"principal", identifier,
		"principal_type", req.PrincipalType,
		"level", string(req.Level),
		"granted_by", actor.Username)
	return created, nil
}

// guardOwnerRemoval rejects a mutation that would demote or remove an
// OWNER-level grant when the centre would be left without any owner. The
// threshold is identical for self-service and third-party removal; only the
// message differs.
func (s *PermissionService) guardOwnerRemoval(ctx context.Context, centre *domain.ResponsibilityCentre, rec *domain.AccessRecord, actor domain.ContextIdentity) error {
	records, err := s.records.ListForCentre(ctx, centre.ID)
	if err != nil {
		return err
	}
	if effectiveOwnerCount(centre, records) > 1 {
		return nil
	}
	actorUser, err := s.users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return err
	}
	selfTarget := rec.PrincipalIdentifier != nil && *rec.PrincipalIdentifier == actor.Username
	if actorUser != nil && rec.UserID != nil && *rec.UserID == actorUser.ID {
		selfTarget = true
	}
	if selfTarget {
		return domain.ErrInvariant("you are the only owner of this centre and cannot remove your own ownership")
	}
	return domain.ErrInvariant("a centre must retain at least one owner")
}

// UpdatePermission changes an existing grant's access level. The principal
// can never be changed; re-grant for that.
func (s *PermissionService) UpdatePermission(ctx context.Context, recordID string, newLevel domain.AccessLevel, actor domain.ContextIdentity) (*domain.AccessRecord, error) {
	if !newLevel.Valid() {
		return nil, domain.ErrValidation("access_level must be READ_ONLY, READ_WRITE, or OWNER")
	}
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	centre, err := s.loadCentreForMutation(ctx, rec.CentreID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, centre.ID, actor); err != nil {
		return nil, err
	}
	// Fixed grant of the designated owner: checked before the count guard.
	if rec.UserID != nil && *rec.UserID == centre.DesignatedOwnerID {
		return nil, domain.ErrInvariant("the designated owner's access level is fixed and cannot be changed")
	}
	if rec.Level == domain.LevelOwner && newLevel != domain.LevelOwner {
		if err := s.guardOwnerRemoval(ctx, centre, rec, actor); err != nil {
			return nil, err
		}
	}

	if err := s.records.UpdateLevel(ctx, rec.ID, newLevel, rec.Version); err != nil {
		return nil, err
	}
	s.logger.Info("access level updated",
		"centre_id", centre.ID,
		"record_id", rec.ID,
		"from", string(rec.Level),
		"to", string(newLevel),
		"updated_by", actor.Username)
	return s.records.GetByID(ctx, rec.ID)
}

// RevokeAccess hard-deletes a grant. The identity can be re-granted
// afterwards with a fresh record.
func (s *PermissionService) RevokeAccess(ctx context.Context, recordID string, actor domain.ContextIdentity) error {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	centre, err := s.loadCentreForMutation(ctx, rec.CentreID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, centre.ID, actor); err != nil {
		return err
	}
	if rec.UserID != nil && *rec.UserID == centre.DesignatedOwnerID {
		return domain.ErrInvariant("the designated owner's access cannot be revoked")
	}
	if rec.Level == domain.LevelOwner {
		if err := s.guardOwnerRemoval(ctx, centre, rec, actor); err != nil {
			return err
		}
	}

	if err := s.records.Delete(ctx, rec.ID, rec.Version); err != nil {
		return err
	}
	s.logger.Info("access revoked",
		"centre_id", centre.ID,
		"record_id", rec.ID,
		"level", string(rec.Level),
		"revoked_by", actor.Username)
	return nil
}

// GetPermissionsForCentre returns every grant on the centre, including the
// designated owner's synthesized entry when no explicit record backs it.
// Only owners may inspect permissions.
func (s *PermissionService) GetPermissionsForCentre(ctx context.Context, centreID string, actor domain.ContextIdentity) ([]domain.AccessRecord, error) {
	centre, err := s.centres.GetByID(ctx, centreID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, centre.ID, actor); err != nil {
		return nil, err
	}
	records, err := s.records.ListForCentre(ctx, centre.ID)
	if err != nil {
		return nil, err
	}
	return withImplicitOwner(centre, records), nil
}
