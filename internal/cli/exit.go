package cli

import (
	"errors"
	"strconv"

	"condaenv/internal/history"
	"condaenv/internal/install"
	"condaenv/internal/launcher"
)

// Exit codes returned by the condaenv binary.
const (
	ExitOK             = 0
	ExitFailure        = 1 // conda missing, install failed or stalled, fatal error
	ExitPipFailed      = 2
	ExitRecordNotFound = 4

	ExitShellNotExecutable = 126 // the shell running conda could not be executed
	ExitShellNotFound      = 127 // the shell running conda does not exist
)

// ExitError carries a process exit code through cobra's error return.
// Err is nil when the failure has already been reported to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Silent reports whether the error has nothing left to print.
func (e *ExitError) Silent() bool { return e.Err == nil }

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, history.ErrRecordNotFound) {
		return ExitRecordNotFound
	}
	if launcher.IsNotFound(err) {
		return ExitShellNotFound
	}
	if launcher.IsPermissionDenied(err) {
		return ExitShellNotExecutable
	}
	return ExitFailure
}

// OutcomeCode maps an install result to its exit code.
func OutcomeCode(res install.Result) int {
	switch res.Outcome {
	case install.OutcomeSuccess:
		return ExitOK
	case install.OutcomePipPackagesFailed:
		return ExitPipFailed
	case install.OutcomeSkipped:
		if res.Reason == install.ReasonNoBinary {
			return ExitFailure
		}
		return ExitOK
	default:
		return ExitFailure
	}
}
