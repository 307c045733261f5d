// Package report renders install progress for users and tests.
package report

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"condaenv/internal/classify"
	"condaenv/internal/condabin"
	"condaenv/internal/install"
)

// Prefix marks every line condaenv itself prints.
const Prefix = "[condaenv] "

// Console writes progress to the terminal and mirrors events to zap.
type Console struct {
	Out    io.Writer // summary lines
	Err    io.Writer // progress, errors and passthrough diagnostics
	Logger *zap.Logger
}

// NewConsole creates a Console.
func NewConsole(out, errOut io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{Out: out, Err: errOut, Logger: logger}
}

// EnvFileDetected implements install.Observer.
func (c *Console) EnvFileDetected(path string) {
	c.Logger.Debug("environment file detected", zap.String("path", path))
	c.info("Detected conda environment file: %s\n", path)
}

// Skipped implements install.Observer.
func (c *Console) Skipped(reason install.Reason) {
	c.Logger.Debug("skipped", zap.String("reason", string(reason)))
	switch reason {
	case install.ReasonNoBinary:
		c.fail(condabin.NotFoundMessage)
	case install.ReasonNoEnvFile:
		c.fail("Failed to detect a conda environment YML file. Skipping..")
	case install.ReasonNoEnvName:
		c.info("Environment name not provided/detected. Skipping..")
	case install.ReasonNoPackages:
		c.info("No packages listed in the environment file. Skipping..")
	}
}

// CommandStarting implements install.Observer.
func (c *Console) CommandStarting(command string) {
	c.Logger.Debug("executing", zap.String("command", command))
	c.info("Executing:\n%s\n", command)
}

// Diagnostic implements install.Observer. The text is passed through verbatim.
func (c *Console) Diagnostic(text string) {
	if text == "" {
		return
	}
	fmt.Fprint(c.Err, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(c.Err)
	}
}

// FailureDetected implements install.Observer.
func (c *Console) FailureDetected(outcome classify.Outcome) {
	c.Logger.Debug("failure detected",
		zap.Stringer("kind", outcome.Kind),
		zap.String("category", string(outcome.Category)),
		zap.Strings("packages", outcome.Packages))

	switch outcome.Kind {
	case classify.KindRecoverable:
		c.fail("Installation failed!")
		c.info("Ignoring %s dependencies and trying again...\n", outcome.Category)
		for _, pkg := range outcome.Packages {
			fmt.Fprintf(c.Err, "  - %s\n", pkg)
		}
	case classify.KindPipFailure:
		c.fail("pip failed while installing the environment's pip packages.")
	case classify.KindUnclassified:
		c.fail("Installation failed with an unrecognized error. Not retrying.")
	}
}

// Finished implements install.Observer.
func (c *Console) Finished(result install.Result) {
	if len(result.Removed) > 0 {
		c.info("Removed from %s: %s\n", result.EnvFile, strings.Join(result.Removed, ", "))
	}
	if result.Outcome == install.OutcomePipPackagesFailed && len(result.PipPackages) > 0 {
		c.info("Declared pip packages: %s\n", strings.Join(result.PipPackages, ", "))
	}
	if summary := FormatSummary(result); summary != "" {
		fmt.Fprintln(c.Out, summary)
	}
}

func (c *Console) info(format string, args ...interface{}) {
	fmt.Fprintf(c.Err, Prefix+format, args...)
}

func (c *Console) fail(msg string) {
	fmt.Fprintf(c.Err, "%sError: %s\n", Prefix, msg)
}

// FormatSummary returns the final line printed for an install result, or ""
// when the install was skipped.
func FormatSummary(result install.Result) string {
	switch result.Outcome {
	case install.OutcomeSuccess:
		return "Dependencies installed successfully."
	case install.OutcomePipPackagesFailed:
		return "Some pip packages failed to install."
	case install.OutcomeFailed:
		return "Installation failed. See the conda output above."
	case install.OutcomeStalled:
		return "Installation stopped: conda kept reporting packages that could not be removed from the environment file."
	default:
		return ""
	}
}
