package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"fundtrack/internal/db"
	"fundtrack/internal/db/repository"
	"fundtrack/internal/directory"
	"fundtrack/internal/domain"
)

// fixture wires the full service stack against a fresh migrated SQLite file.
type fixture struct {
	users   *repository.UserRepo
	centres *repository.CentreRepo
	records *repository.AccessRecordRepo
	items   *repository.FundingItemRepo

	access      *AccessService
	permissions *PermissionService
	centreSvc   *CentreService
	funding     *FundingItemService
}

// knownDirectory is the static directory every fixture validates against.
var knownDirectory = map[string]string{
	"dora":          "Dora Directory",
	"CN=Finance":    "Finance Team",
	"DL=Purchasing": "Purchasing List",
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		users:   repository.NewUserRepo(writeDB),
		centres: repository.NewCentreRepo(writeDB),
		records: repository.NewAccessRecordRepo(writeDB),
		items:   repository.NewFundingItemRepo(writeDB),
	}
	f.access = NewAccessService(f.centres, f.users, f.records)
	f.permissions = NewPermissionService(
		f.centres, f.users, f.records, f.access,
		directory.NewStaticValidator(knownDirectory), logger,
	)
	f.centreSvc = NewCentreService(f.centres, f.users, f.access, logger)
	f.funding = NewFundingItemService(f.items, f.users, f.access, logger)
	return f
}

func (f *fixture) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{Username: username, DisplayName: username})
	require.NoError(t, err)
	return u
}

func (f *fixture) createCentre(t *testing.T, name, ownerID string) *domain.ResponsibilityCentre {
	t.Helper()
	c, err := f.centres.Create(context.Background(), &domain.ResponsibilityCentre{
		Name:              name,
		DesignatedOwnerID: ownerID,
	})
	require.NoError(t, err)
	return c
}

func actor(username string, groups ...string) domain.ContextIdentity {
	return domain.ContextIdentity{Username: username, Groups: groups}
}
