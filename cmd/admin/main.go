// Package main is the admin CLI for the budget tracker. It operates directly
// on the database: migrations, seeding, local account and centre creation,
// and minting development JWTs.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"fundtrack/internal/app"
	"fundtrack/internal/config"
	internaldb "fundtrack/internal/db"
	"fundtrack/internal/db/repository"
	"fundtrack/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "fundtrack-admin",
		Short:         "Administrative commands for the budget tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (default: DB_PATH or fundtrack.sqlite)")

	openDB := func() (*sql.DB, error) {
		path := dbPath
		if path == "" {
			path = os.Getenv("DB_PATH")
		}
		if path == "" {
			path = "fundtrack.sqlite"
		}
		return internaldb.OpenSQLite(path, "write", 0)
	}

	rootCmd.AddCommand(newMigrateCmd(openDB))
	rootCmd.AddCommand(newSeedCmd(openDB))
	rootCmd.AddCommand(newCreateUserCmd(openDB))
	rootCmd.AddCommand(newCreateCentreCmd(openDB))
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

func newMigrateCmd(openDB func() (*sql.DB, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := internaldb.RunMigrations(db); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}

func newSeedCmd(openDB func() (*sql.DB, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the system user and demo centre if absent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := internaldb.RunMigrations(db); err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			return app.Seed(context.Background(), repository.NewUserRepo(db), repository.NewCentreRepo(db), logger)
		},
	}
}

func newCreateUserCmd(openDB func() (*sql.DB, error)) *cobra.Command {
	var displayName string

	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a local user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.CreateUserRequest{Username: args[0], DisplayName: displayName}
			if err := req.Validate(); err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := repository.NewUserRepo(db).Create(context.Background(), &domain.User{
				Username:    req.Username,
				DisplayName: req.DisplayName,
			})
			if err != nil {
				return err
			}
			cmd.Printf("created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "human-readable display name")
	return cmd
}

func newCreateCentreCmd(openDB func() (*sql.DB, error)) *cobra.Command {
	var ownerUsername string

	cmd := &cobra.Command{
		Use:   "create-centre <name>",
		Short: "Create a responsibility centre owned by an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerUsername == "" {
				return fmt.Errorf("--owner is required")
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			owner, err := repository.NewUserRepo(db).GetByUsername(ctx, ownerUsername)
			if err != nil {
				return err
			}
			if owner == nil {
				return fmt.Errorf("user %q does not exist", ownerUsername)
			}

			centre, err := repository.NewCentreRepo(db).Create(ctx, &domain.ResponsibilityCentre{
				Name:              args[0],
				DesignatedOwnerID: owner.ID,
			})
			if err != nil {
				return err
			}
			cmd.Printf("created centre %s (%s) owned by %s\n", centre.Name, centre.ID, owner.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerUsername, "owner", "", "username of the designated owner")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		groups []string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Mint a development HS256 JWT for the given username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			now := time.Now()
			claims := jwt.MapClaims{
				"sub": args[0],
				"iat": now.Unix(),
				"exp": now.Add(ttl).Unix(),
			}
			if len(groups) > 0 {
				claims["groups"] = groups
			}
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
			if err != nil {
				return err
			}
			cmd.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&groups, "group", nil, "group identifier to embed in the groups claim (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
