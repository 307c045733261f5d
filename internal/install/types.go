package install

import (
	"condaenv/internal/classify"
)

// Outcome is the terminal state of one Install call.
type Outcome int

const (
	// OutcomeSkipped means configuration was absent and nothing ran.
	OutcomeSkipped Outcome = iota
	// OutcomeSuccess means the last execution produced no diagnostic output.
	OutcomeSuccess
	// OutcomePipPackagesFailed means conda resolved but pip failed.
	OutcomePipPackagesFailed
	// OutcomeFailed means the diagnostic output matched no known pattern.
	OutcomeFailed
	// OutcomeStalled means pruning could not make progress.
	OutcomeStalled
)

// String returns the outcome name used in logs and history records.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSuccess:
		return "success"
	case OutcomePipPackagesFailed:
		return "pip_packages_failed"
	case OutcomeFailed:
		return "failed"
	case OutcomeStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// Reason explains why an install or activation was skipped.
type Reason string

const (
	ReasonNoBinary   Reason = "conda_not_found"
	ReasonNoEnvFile  Reason = "env_file_not_found"
	ReasonNoEnvName  Reason = "env_name_missing"
	ReasonNoPackages Reason = "no_packages"
)

// Request holds the optional user inputs for Install.
type Request struct {
	EnvFile string // explicit environment file, "" to detect
	EnvName string // explicit environment name, "" to derive or prompt
}

// Result describes a finished Install call.
type Result struct {
	Outcome        Outcome
	Reason         Reason
	EnvFile        string
	EnvName        string
	Command        string
	Attempts       int      // number of executions
	Removed        []string // entries pruned from the environment file, in order
	PipPackages    []string // declared pip requirements, set on OutcomePipPackagesFailed
	LastDiagnostic string
}

// Observer is notified at well-defined points of an install or activation.
type Observer interface {
	EnvFileDetected(path string)
	Skipped(reason Reason)
	CommandStarting(command string)
	Diagnostic(text string)
	FailureDetected(outcome classify.Outcome)
	Finished(result Result)
}

// BinaryResolver locates the package-manager executable.
type BinaryResolver interface {
	Resolve() (string, error)
}

// Locator finds the environment file; it returns "" when none exists.
type Locator interface {
	Locate(explicit string) string
}

// NameResolver turns an explicit name and environment file into the target
// environment name; "" means unresolved.
type NameResolver interface {
	ResolveName(explicit, envFile string) (string, error)
}

// NameDeriver reads the environment name declared in an environment file.
type NameDeriver interface {
	Name(path string) string
}

// PackageLister reads the current package lists from an environment file.
type PackageLister interface {
	Packages(path string) ([]string, error)
	PipPackages(path string) ([]string, error)
}

// Sanitizer removes packages from an environment file in place and returns
// the entries it removed.
type Sanitizer interface {
	RemovePackages(path string, pkgs []string) ([]string, error)
}

// nopObserver discards all events.
type nopObserver struct{}

func (nopObserver) EnvFileDetected(string)           {}
func (nopObserver) Skipped(Reason)                   {}
func (nopObserver) CommandStarting(string)           {}
func (nopObserver) Diagnostic(string)                {}
func (nopObserver) FailureDetected(classify.Outcome) {}
func (nopObserver) Finished(Result)                  {}
