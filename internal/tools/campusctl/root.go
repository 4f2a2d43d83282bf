package campusctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/common"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/migrate"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/seed"
)

func NewRootCommand() *cobra.Command {
	opts := &common.Options{}
	cmd := &cobra.Command{
		Use:           "campusctl",
		Short:         "Campus portal operator tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.CI, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		migrate.NewCommand(opts),
		seed.NewCommand(opts),
		newHashPasswordCommand(),
	)
	return cmd
}

// newHashPasswordCommand prints a digest and salt for manual credential
// repair. The password is read from stdin so it stays out of shell history.
func newHashPasswordCommand() *cobra.Command {
	var salt string
	var iterations int
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Derive a password digest from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := hashPassword(cmd.InOrStdin(), cmd.OutOrStdout(), iterations, salt)
			status := "success"
			if err != nil {
				status = "failure"
			}
			observability.RecordToolCommandRun(context.Background(), "campusctl", "hash-password", status)
			observability.RecordToolCommandDuration(context.Background(), "campusctl", "hash-password", status, time.Since(start))
			return err
		},
	}
	cmd.Flags().StringVar(&salt, "salt", "", "hex salt to reuse (random when empty)")
	cmd.Flags().IntVar(&iterations, "iterations", security.DefaultHashIterations, "PBKDF2 iterations")
	return cmd
}

func hashPassword(in io.Reader, out io.Writer, iterations int, salt string) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password is required on stdin")
	}
	if salt == "" {
		salt, err = security.GenerateSalt(security.DefaultSaltLength)
		if err != nil {
			return err
		}
	}
	hash := security.NewPasswordHasher(iterations).Hash(password, salt)
	_, err = fmt.Fprintf(out, "hash=%s\nsalt=%s\n", hash, salt)
	return err
}
