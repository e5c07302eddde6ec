package app

import (
	"context"
	"fmt"
	"log/slog"

	"fundtrack/internal/db/repository"
	"fundtrack/internal/domain"
)

const systemUsername = "system"

// Seed creates the system user and the demo centre when absent. Idempotent;
// safe to run on every startup.
func Seed(ctx context.Context, users *repository.UserRepo, centres *repository.CentreRepo, logger *slog.Logger) error {
	sys, err := users.GetByUsername(ctx, systemUsername)
	if err != nil {
		return fmt.Errorf("seed: lookup system user: %w", err)
	}
	if sys == nil {
		sys, err = users.Create(ctx, &domain.User{
			Username:    systemUsername,
			DisplayName: "System",
		})
		if err != nil {
			return fmt.Errorf("seed: create system user: %w", err)
		}
		logger.Info("seeded system user", "user_id", sys.ID)
	}

	demo, err := centres.GetByName(ctx, domain.DemoCentreName)
	if err != nil {
		if _, notFound := err.(*domain.NotFoundError); !notFound {
			return fmt.Errorf("seed: lookup demo centre: %w", err)
		}
	}
	if demo == nil {
		demo, err = centres.Create(ctx, &domain.ResponsibilityCentre{
			Name:              domain.DemoCentreName,
			DesignatedOwnerID: sys.ID,
		})
		if err != nil {
			return fmt.Errorf("seed: create demo centre: %w", err)
		}
		logger.Info("seeded demo centre", "centre_id", demo.ID)
	}
	return nil
}
