package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundtrack/internal/domain"
)

func TestGrantUserAccess_LocalUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	centre := f.createCentre(t, "Engineering", alice.ID)

	rec, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "bob",
		Level:               domain.LevelReadWrite,
	}, actor("alice"))
	require.NoError(t, err)

	require.NotNil(t, rec.UserID)
	assert.Equal(t, bob.ID, *rec.UserID)
	assert.Nil(t, rec.PrincipalIdentifier)
	assert.Equal(t, domain.PrincipalUser, rec.PrincipalType)
	require.NotNil(t, rec.GrantedBy)
	assert.Equal(t, alice.ID, *rec.GrantedBy)

	level, ok, err := f.access.Resolve(ctx, centre.ID, "bob", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.AccessLevel(domain.LevelReadWrite), level)
}

func TestGrantUserAccess_DirectoryUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	centre := f.createCentre(t, "Engineering", alice.ID)

	rec, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "dora",
		Level:               domain.LevelReadOnly,
	}, actor("alice"))
	require.NoError(t, err)

	assert.Nil(t, rec.UserID)
	require.NotNil(t, rec.PrincipalIdentifier)
	assert.Equal(t, "dora", *rec.PrincipalIdentifier)
	require.NotNil(t, rec.PrincipalDisplayName)
	assert.Equal(t, "Dora Directory", *rec.PrincipalDisplayName)
}

func TestGrantUserAccess_UnknownIdentifier(t *testing.T) {
	f := newFixture(t)

	alice := f.createUser(t, "alice")
	centre := f.createCentre(t, "Engineering", alice.ID)

	_, err := f.permissions.GrantUserAccess(context.Background(), domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "nobody-anywhere",
		Level:               domain.LevelReadOnly,
	}, actor("alice"))

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestGrantUserAccess_NonOwnerRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	f.createUser(t, "bob")
	centre := f.createCentre(t, "Engineering", alice.ID)

	// bob holds READ_WRITE; still cannot manage permissions.
	_, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "bob",
		Level:               domain.LevelReadWrite,
	}, actor("alice"))
	require.NoError(t, err)

	_, err = f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "dora",
		Level:               domain.LevelReadOnly,
	}, actor("bob"))

	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
}

func TestGrantUserAccess_DesignatedOwnerRejected(t *testing.T) {
	f := newFixture(t)

	alice := f.createUser(t, "alice")
	centre := f.createCentre(t, "Engineering", alice.ID)

	_, err := f.permissions.GrantUserAccess(context.Background(), domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "alice",
		Level:               domain.LevelReadOnly,
	}, actor("alice"))

	var invariant *domain.InvariantViolationError
	require.ErrorAs(t, err, &invariant)
}

func TestGrantUserAccess_DuplicateDifferentiation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	f.createUser(t, "bob")
	centre := f.createCentre(t, "Engineering", alice.ID)

	_, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "bob",
		Level:               domain.LevelReadOnly,
	}, actor("alice"))
	require.NoError(t, err)

	t.Run("same_level", func(t *testing.T) {
		_, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
			CentreID:            centre.ID,
			PrincipalIdentifier: "bob",
			Level:               domain.LevelReadOnly,
		}, actor("alice"))

		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.NotContains(t, err.Error(), "update the existing permission")
	})

	t.Run("different_level", func(t *testing.T) {
		_, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
			CentreID:            centre.ID,
			PrincipalIdentifier: "bob",
			Level:               domain.LevelOwner,
		}, actor("alice"))

		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Contains(t, err.Error(), "update the existing permission")
	})
}

func TestGrantGroupAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	centre := f.createCentre(t, "Engineering", alice.ID)

	req := domain.GrantGroupAccessRequest{
		CentreID:             centre.ID,
		PrincipalIdentifier:  "CN=Finance",
		PrincipalDisplayName: "Finance Team",
		PrincipalType:        domain.PrincipalGroup,
		Level:                domain.LevelReadWrite,
	}

	rec, err := f.permissions.GrantGroupAccess(ctx, req, actor("alice"))
	require.NoError(t, err)
	assert.Equal(t, domain.PrincipalGroup, rec.PrincipalType)

	// Group members get access by presenting the group identifier.
	level, ok, err := f.access.Resolve(ctx, centre.ID, "someone", []string{"CN=Finance"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.AccessLevel(domain.LevelReadWrite), level)

	// Re-granting the same group is a conflict.
	_, err = f.permissions.GrantGroupAccess(ctx, req, actor("alice"))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	// The same identifier under a different principal type is a distinct grant.
	dl := req
	dl.PrincipalIdentifier = "DL=Purchasing"
	dl.PrincipalType = domain.PrincipalDistributionList
	_, err = f.permissions.GrantGroupAccess(ctx, dl, actor("alice"))
	require.NoError(t, err)
}

func TestPermissionMutation_DemoCentreImmune(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sys := f.createUser(t, "system")
	demo := f.createCentre(t, domain.DemoCentreName, sys.ID)

	_, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            demo.ID,
		PrincipalIdentifier: "dora",
		Level:               domain.LevelReadOnly,
	}, actor("system"))

	var invariant *domain.InvariantViolationError
	require.ErrorAs(t, err, &invariant)
}

func TestUpdatePermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	f.createUser(t, "bob")
	centre := f.createCentre(t, "Engineering", alice.ID)

	rec, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "bob",
		Level:               domain.LevelReadOnly,
	}, actor("alice"))
	require.NoError(t, err)

	updated, err := f.permissions.UpdatePermission(ctx, rec.ID, domain.LevelReadWrite, actor("alice"))
	require.NoError(t, err)
	assert.Equal(t, domain.AccessLevel(domain.LevelReadWrite), updated.Level)
	assert.Equal(t, rec.Version+1, updated.Version)

	_, err = f.permissions.UpdatePermission(ctx, rec.ID, "SUPERUSER", actor("alice"))
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestUpdatePermission_DesignatedOwnerRecordFixed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	centre := f.createCentre(t, "Engineering", alice.ID)

	// An explicit OWNER record for the designated owner (seeded directly; the
	// grant API refuses to create one).
	rec, err := f.records.Create(ctx, &domain.AccessRecord{
		CentreID:      centre.ID,
		UserID:        &alice.ID,
		PrincipalType: domain.PrincipalUser,
		Level:         domain.LevelOwner,
	})
	require.NoError(t, err)

	var invariant *domain.InvariantViolationError

	_, err = f.permissions.UpdatePermission(ctx, rec.ID, domain.LevelReadOnly, actor("alice"))
	require.ErrorAs(t, err, &invariant)

	err = f.permissions.RevokeAccess(ctx, rec.ID, actor("alice"))
	require.ErrorAs(t, err, &invariant)
}

func TestRevokeAccess_CoOwnerRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	f.createUser(t, "carol")
	centre := f.createCentre(t, "Engineering", alice.ID)

	grant := func(level domain.AccessLevel) *domain.AccessRecord {
		rec, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
			CentreID:            centre.ID,
			PrincipalIdentifier: "carol",
			Level:               level,
		}, actor("alice"))
		require.NoError(t, err)
		return rec
	}

	// Revoking carol's OWNER record keeps alice's implicit ownership: the
	// effective count drops 2 -> 1, never to zero.
	rec := grant(domain.LevelOwner)
	require.NoError(t, f.permissions.RevokeAccess(ctx, rec.ID, actor("alice")))

	_, ok, err := f.access.Resolve(ctx, centre.ID, "carol", nil)
	require.NoError(t, err)
	assert.False(t, ok, "revoke restores no access")

	// Re-granting after a revoke works, including at a different level: no
	// residual duplicate-detection state survives the delete.
	rec2 := grant(domain.LevelReadWrite)
	assert.NotEqual(t, rec.ID, rec2.ID)
	require.NoError(t, f.permissions.RevokeAccess(ctx, rec2.ID, actor("alice")))

	// Carol as co-owner may revoke her own grant while alice remains.
	rec3 := grant(domain.LevelOwner)
	require.NoError(t, f.permissions.RevokeAccess(ctx, rec3.ID, actor("carol")))
}

func TestGuardOwnerRemovalMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	centre := f.createCentre(t, "Engineering", alice.ID)

	// Sole OWNER entry is the designated owner's explicit record, so the
	// effective count is exactly one.
	rec, err := f.records.Create(ctx, &domain.AccessRecord{
		CentreID:      centre.ID,
		UserID:        &alice.ID,
		PrincipalType: domain.PrincipalUser,
		Level:         domain.LevelOwner,
	})
	require.NoError(t, err)

	err = f.permissions.guardOwnerRemoval(ctx, centre, rec, actor("alice"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot remove your own ownership")

	err = f.permissions.guardOwnerRemoval(ctx, centre, rec, actor("someone-else"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must retain at least one owner")
}

func TestEffectiveOwnerCount(t *testing.T) {
	ownerID := "owner-1"
	otherID := "other-1"
	centre := &domain.ResponsibilityCentre{ID: "c1", DesignatedOwnerID: ownerID}

	t.Run("no_records_counts_implicit", func(t *testing.T) {
		assert.Equal(t, 1, effectiveOwnerCount(centre, nil))
	})

	t.Run("explicit_designated_owner_not_double_counted", func(t *testing.T) {
		records := []domain.AccessRecord{
			{CentreID: "c1", UserID: &ownerID, Level: domain.LevelOwner},
		}
		assert.Equal(t, 1, effectiveOwnerCount(centre, records))
	})

	t.Run("co_owner_adds_one", func(t *testing.T) {
		records := []domain.AccessRecord{
			{CentreID: "c1", UserID: &otherID, Level: domain.LevelOwner},
		}
		assert.Equal(t, 2, effectiveOwnerCount(centre, records))
	})

	t.Run("non_owner_grants_do_not_count", func(t *testing.T) {
		records := []domain.AccessRecord{
			{CentreID: "c1", UserID: &otherID, Level: domain.LevelReadWrite},
		}
		assert.Equal(t, 1, effectiveOwnerCount(centre, records))
	})
}

func TestGetPermissionsForCentre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	f.createUser(t, "bob")
	centre := f.createCentre(t, "Engineering", alice.ID)

	_, err := f.permissions.GrantUserAccess(ctx, domain.GrantUserAccessRequest{
		CentreID:            centre.ID,
		PrincipalIdentifier: "bob",
		Level:               domain.LevelReadOnly,
	}, actor("alice"))
	require.NoError(t, err)

	records, err := f.permissions.GetPermissionsForCentre(ctx, centre.ID, actor("alice"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// The synthesized designated-owner entry comes first.
	assert.True(t, records[0].Implicit)
	require.NotNil(t, records[0].UserID)
	assert.Equal(t, alice.ID, *records[0].UserID)
	assert.Equal(t, domain.AccessLevel(domain.LevelOwner), records[0].Level)

	assert.False(t, records[1].Implicit)

	// Non-owners cannot inspect permissions.
	_, err = f.permissions.GetPermissionsForCentre(ctx, centre.ID, actor("bob"))
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
}
