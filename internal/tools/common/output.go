package common

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// CIResult is the JSON document campusctl writes in --ci mode.
type CIResult struct {
	OK         bool     `json:"ok"`
	Command    string   `json:"command"`
	DurationMS int64    `json:"duration_ms"`
	ExitCode   int      `json:"exit_code"`
	Details    []string `json:"details,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newCIResult(command string, details []string, err error, elapsed time.Duration) CIResult {
	res := CIResult{
		OK:         err == nil,
		Command:    command,
		DurationMS: elapsed.Milliseconds(),
		ExitCode:   ExitCode(err),
		Details:    details,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func writeCIResult(w io.Writer, res CIResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

var ciOutput io.Writer = os.Stdout
