package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/campus-portal-backend/internal/tools/common"
)

const exitLoadFailed = 4

// NewRootCommand builds the loadgen CLI. Flags map one-to-one onto Config.
func NewRootCommand() *cobra.Command {
	cfg := Config{}
	ci := false
	cmd := &cobra.Command{
		Use:           "loadgen",
		Short:         "Drive synthetic traffic at a running campus portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	flags.StringVar(&cfg.Profile, "profile", "mixed", "traffic profile: auth|mixed|error-heavy")
	flags.DurationVar(&cfg.Duration, "duration", 15*time.Second, "how long to send traffic")
	flags.IntVar(&cfg.RPS, "rps", 20, "target requests per second")
	flags.IntVar(&cfg.Concurrency, "concurrency", 6, "concurrent workers")
	flags.Int64Var(&cfg.Seed, "seed", 42, "seed for the request mix")
	flags.BoolVar(&ci, "ci", false, "print a JSON result instead of the progress view")

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Send traffic and summarize response classes",
		RunE: func(*cobra.Command, []string) error {
			opts := &common.Options{CI: ci, Timeout: cfg.Duration + 15*time.Second}
			_, err := common.Execute(opts, "loadgen", "run", exitLoadFailed, func(ctx context.Context) ([]string, error) {
				res, err := Run(ctx, cfg)
				if err != nil {
					return nil, err
				}
				return Summarize(res), nil
			})
			return err
		},
	})
	return cmd
}

// Summarize renders a Result as key=value detail lines.
func Summarize(res Result) []string {
	return []string{
		fmt.Sprintf("total_requests=%d", res.TotalRequests),
		fmt.Sprintf("failures=%d", res.Failures),
		fmt.Sprintf("status_2xx=%d", res.Status2xx),
		fmt.Sprintf("status_4xx=%d", res.Status4xx),
		fmt.Sprintf("rate_limited=%d", res.Status429),
		fmt.Sprintf("status_5xx=%d", res.Status5xx),
	}
}
