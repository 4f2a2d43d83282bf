package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/database"
	"github.com/sandeepkv93/campus-portal-backend/internal/di"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/common"
)

const exitMigrateFailed = 3

func NewCommand(opts *common.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migration tooling",
	}
	cmd.AddCommand(newUpCommand(opts), newStatusCommand(opts))
	return cmd
}

func newUpCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema migrations and promote the bootstrap owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := common.Execute(opts, "campusctl", "migrate up", exitMigrateFailed, func(ctx context.Context) ([]string, error) {
				runner, err := openRunner(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer func() { _ = runner.Close() }()
				return Up(ctx, runner)
			})
			return err
		},
	}
}

func newStatusCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which managed tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := common.Execute(opts, "campusctl", "migrate status", exitMigrateFailed, func(ctx context.Context) ([]string, error) {
				runner, err := openRunner(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer func() { _ = runner.Close() }()
				return Status(ctx, runner.DB())
			})
			return err
		},
	}
}

// Up migrates the schema and reports what happened to the bootstrap owner.
func Up(ctx context.Context, runner *di.MigrationRunner) ([]string, error) {
	report, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	details := []string{"schema migration applied"}
	email := runner.Config().BootstrapOwnerEmail
	switch {
	case report == nil:
		details = append(details, "bootstrap owner: not configured")
	case report.Promoted:
		details = append(details, fmt.Sprintf("bootstrap owner promoted: user %d", report.UserID))
	default:
		details = append(details, "bootstrap owner: nothing to do for "+email)
	}
	return details, nil
}

func Status(ctx context.Context, db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	tables, err := database.MigrationStatus(db)
	if err != nil {
		return nil, err
	}
	details := make([]string, 0, len(tables))
	pending := 0
	for _, t := range tables {
		state := "present"
		if !t.Present {
			state = "missing"
			pending++
		}
		details = append(details, t.Table+": "+state)
	}
	if pending > 0 {
		details = append(details, fmt.Sprintf("%d table(s) pending, run migrate up", pending))
	}
	return details, nil
}

func openRunner(envFile string) (*di.MigrationRunner, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return di.InitializeMigrationRunner()
}
