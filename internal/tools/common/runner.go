package common

import (
	"context"
	"time"

	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/ui"
)

const defaultTimeout = 30 * time.Second

// Options are the flags every campusctl subcommand shares.
type Options struct {
	EnvFile string
	Timeout time.Duration
	CI      bool
}

type Action = ui.Action

// Execute runs fn behind the interactive progress view or, in CI mode,
// directly with a JSON result on stdout. A failure is returned as an
// ExitCodeError carrying failCode.
func Execute(opts *Options, tool, command string, failCode int, fn Action) ([]string, error) {
	name := tool + " " + command
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	start := time.Now()
	var (
		details []string
		err     error
	)
	if opts.CI {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		details, err = fn(ctx)
		cancel()
		err = ExitError(failCode, err)
		_ = writeCIResult(ciOutput, newCIResult(name, details, err, time.Since(start)))
	} else {
		details, err = ui.Run(name, timeout, fn)
		err = ExitError(failCode, err)
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	observability.RecordToolCommandRun(context.Background(), tool, command, status)
	observability.RecordToolCommandDuration(context.Background(), tool, command, status, time.Since(start))
	return details, err
}
