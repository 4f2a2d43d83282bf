package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/campus-portal-backend/internal/database"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/common"
)

const (
	exitSeedFailed = 3

	// OwnerPasswordEnv lets scripts pass the owner password without putting
	// it on the command line.
	OwnerPasswordEnv = "CAMPUS_OWNER_PASSWORD"
)

func NewCommand(opts *common.Options) *cobra.Command {
	cmd := &cobra.Command{Use: "seed", Short: "Seed privileged accounts"}
	cmd.AddCommand(newOwnerCommand(opts))
	return cmd
}

func newOwnerCommand(opts *common.Options) *cobra.Command {
	var email, username string
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Create or promote the owner account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := common.Execute(opts, "campusctl", "seed owner", exitSeedFailed, func(ctx context.Context) ([]string, error) {
				cfg, err := common.LoadConfig(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				if strings.TrimSpace(email) == "" {
					email = cfg.BootstrapOwnerEmail
				}
				db, err := database.Open(cfg)
				if err != nil {
					return nil, err
				}
				defer func() {
					if sqlDB, err := db.DB(); err == nil {
						_ = sqlDB.Close()
					}
				}()
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				report, err := database.SeedOwner(ctx, db, security.NewPasswordHasher(cfg.PasswordHashIterations), database.OwnerSeed{
					Email:    email,
					Username: username,
					Password: os.Getenv(OwnerPasswordEnv),
				})
				if errors.Is(err, database.ErrOwnerPasswordRequired) {
					return nil, fmt.Errorf("%w: set %s", err, OwnerPasswordEnv)
				}
				if err != nil {
					return nil, err
				}
				return Describe(report, email), nil
			})
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email (defaults to BOOTSTRAP_OWNER_EMAIL)")
	cmd.Flags().StringVar(&username, "username", "", "username for a newly created owner")
	return cmd
}

func Describe(report *database.SeedReport, email string) []string {
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case report == nil:
		return nil
	case report.Created:
		return []string{fmt.Sprintf("created owner %s (user %d)", email, report.UserID)}
	case report.Promoted:
		return []string{fmt.Sprintf("promoted %s to owner (user %d)", email, report.UserID)}
	default:
		return []string{fmt.Sprintf("%s is already owner", email)}
	}
}
