// Package app provides application-level wiring and dependency injection.
// main() supplies the database handles, config, and logger; app assembles
// the repositories and services around them.
package app

import (
	"context"
	"database/sql"
	"log/slog"

	"fundtrack/internal/config"
	"fundtrack/internal/db/repository"
	"fundtrack/internal/directory"
	"fundtrack/internal/domain"
	"fundtrack/internal/service"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger

	// Directory overrides the validator built from Cfg when non-nil.
	// Tests use this to inject a static directory.
	Directory domain.DirectoryValidator
}

// Services groups the service pointers the API handler needs.
type Services struct {
	Access     *service.AccessService
	Permission *service.PermissionService
	Centre     *service.CentreService
	Funding    *service.FundingItemService
}

// App holds the fully-wired application.
type App struct {
	Services Services
	Users    *repository.UserRepo
	Centres  *repository.CentreRepo
}

// New wires repositories and services from the provided deps and seeds the
// system user and demo centre.
func New(ctx context.Context, deps Deps) (*App, error) {
	// Mutating repos use the write pool. The resolver runs on every request
	// and only reads, so it gets its own repos on the read pool.
	userRepo := repository.NewUserRepo(deps.WriteDB)
	centreRepo := repository.NewCentreRepo(deps.WriteDB)
	recordRepo := repository.NewAccessRecordRepo(deps.WriteDB)
	itemRepo := repository.NewFundingItemRepo(deps.WriteDB)

	readUserRepo := repository.NewUserRepo(deps.ReadDB)
	readCentreRepo := repository.NewCentreRepo(deps.ReadDB)
	readRecordRepo := repository.NewAccessRecordRepo(deps.ReadDB)

	dir := deps.Directory
	if dir == nil {
		if deps.Cfg.DirectoryURL != "" {
			dir = directory.NewHTTPValidator(deps.Cfg.DirectoryURL, deps.Cfg.DirectoryTimeout)
		} else {
			dir = directory.NewStaticValidator(nil)
		}
	}

	accessSvc := service.NewAccessService(readCentreRepo, readUserRepo, readRecordRepo)
	permissionSvc := service.NewPermissionService(
		centreRepo, userRepo, recordRepo, accessSvc, dir,
		deps.Logger.With("component", "permissions"),
	)
	centreSvc := service.NewCentreService(centreRepo, userRepo, accessSvc,
		deps.Logger.With("component", "centres"))
	fundingSvc := service.NewFundingItemService(itemRepo, userRepo, accessSvc,
		deps.Logger.With("component", "funding"))

	if err := Seed(ctx, userRepo, centreRepo, deps.Logger); err != nil {
		return nil, err
	}

	return &App{
		Services: Services{
			Access:     accessSvc,
			Permission: permissionSvc,
			Centre:     centreSvc,
			Funding:    fundingSvc,
		},
		Users:   userRepo,
		Centres: centreRepo,
	}, nil
}
