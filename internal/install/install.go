// Package install drives conda through the adaptive installation retry loop.
package install

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"condaenv/internal/classify"
	"condaenv/internal/launcher"
)

// Deps are the collaborators of an Installer. Classifier, Observer and
// Logger default to the pattern classifier, a no-op observer and a no-op logger.
type Deps struct {
	Binary     BinaryResolver
	Locator    Locator
	Names      NameResolver // install: explicit, derived or prompted
	Declared   NameDeriver  // activate: derived only
	Packages   PackageLister
	Sanitizer  Sanitizer
	Executor   launcher.Executor
	Classifier classify.Classifier
	Observer   Observer
	Logger     *zap.Logger

	// Debounce is the pause between a recoverable failure and the next attempt.
	Debounce time.Duration
}

// Installer runs installs and activations. It holds no state between calls.
type Installer struct {
	deps Deps
}

// New creates an Installer.
func New(deps Deps) *Installer {
	if deps.Classifier == nil {
		deps.Classifier = classify.NewPatterns()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Installer{deps: deps}
}

// UpdateCommand builds the conda command that installs an environment file
// into the named environment.
func UpdateCommand(bin, envFile, envName string) string {
	return bin + " env update --file " + launcher.Quote(envFile) + " --name " + launcher.Quote(envName)
}

// ActivateCommand builds the conda command that activates an environment.
func ActivateCommand(bin, envName string) string {
	return bin + " activate " + launcher.Quote(envName)
}

// Install resolves the environment and runs the retry loop.
// Configuration absence yields OutcomeSkipped with a nil error; spawn and
// sanitize failures are returned as errors.
func (i *Installer) Install(ctx context.Context, req Request) (Result, error) {
	var res Result

	bin, err := i.deps.Binary.Resolve()
	if err != nil {
		i.deps.Logger.Debug("conda binary not resolved", zap.Error(err))
		return i.skip(res, ReasonNoBinary), nil
	}

	res.EnvFile = i.deps.Locator.Locate(req.EnvFile)
	if res.EnvFile == "" {
		return i.skip(res, ReasonNoEnvFile), nil
	}
	i.deps.Observer.EnvFileDetected(res.EnvFile)

	res.EnvName, err = i.deps.Names.ResolveName(req.EnvName, res.EnvFile)
	if err != nil {
		return res, fmt.Errorf("resolving environment name: %w", err)
	}
	if res.EnvName == "" {
		return i.skip(res, ReasonNoEnvName), nil
	}

	packages, err := i.deps.Packages.Packages(res.EnvFile)
	if err != nil {
		return res, fmt.Errorf("reading packages from %s: %w", res.EnvFile, err)
	}
	if len(packages) == 0 {
		return i.skip(res, ReasonNoPackages), nil
	}

	res.Command = UpdateCommand(bin, res.EnvFile, res.EnvName)
	if err := i.runCommand(ctx, &res, len(packages)); err != nil {
		return res, err
	}

	i.deps.Logger.Info("install finished",
		zap.String("outcome", res.Outcome.String()),
		zap.Int("attempts", res.Attempts),
		zap.Strings("removed", res.Removed))
	i.deps.Observer.Finished(res)
	return res, nil
}

// runCommand executes the update command until it succeeds or fails
// terminally. At most maxRounds recoverable rounds are attempted, and every
// round must strictly shrink the declared package set.
func (i *Installer) runCommand(ctx context.Context, res *Result, maxRounds int) error {
	rounds := 0
	for {
		i.deps.Observer.CommandStarting(res.Command)
		out, err := i.deps.Executor.Execute(ctx, res.Command)
		res.Attempts++
		if err != nil {
			return fmt.Errorf("running %s: %w", res.Command, err)
		}
		i.deps.Logger.Debug("command finished",
			zap.Int("attempt", res.Attempts),
			zap.Int("exit_code", out.ExitCode),
			zap.Int("diagnostic_bytes", len(out.Diagnostic)))

		if out.Success() {
			res.Outcome = OutcomeSuccess
			return nil
		}

		res.LastDiagnostic = out.Diagnostic
		i.deps.Observer.Diagnostic(out.Diagnostic)

		// Classify against the file as it is now, not the initial snapshot.
		current, err := i.deps.Packages.Packages(res.EnvFile)
		if err != nil {
			return fmt.Errorf("reading packages from %s: %w", res.EnvFile, err)
		}

		outcome := classify.Classify(i.deps.Classifier, out.Diagnostic, current)
		i.deps.Logger.Debug("diagnostic classified",
			zap.Stringer("kind", outcome.Kind),
			zap.String("category", string(outcome.Category)),
			zap.Strings("packages", outcome.Packages))
		i.deps.Observer.FailureDetected(outcome)

		switch outcome.Kind {
		case classify.KindClean:
			res.Outcome = OutcomeSuccess
			return nil
		case classify.KindPipFailure:
			res.Outcome = OutcomePipPackagesFailed
			if pip, err := i.deps.Packages.PipPackages(res.EnvFile); err == nil {
				res.PipPackages = pip
			}
			return nil
		case classify.KindUnclassified:
			res.Outcome = OutcomeFailed
			return nil
		}

		if rounds >= maxRounds {
			res.Outcome = OutcomeStalled
			return nil
		}
		rounds++

		removed, err := i.deps.Sanitizer.RemovePackages(res.EnvFile, outcome.Packages)
		if err != nil {
			return fmt.Errorf("removing %v from %s: %w", outcome.Packages, res.EnvFile, err)
		}
		res.Removed = append(res.Removed, removed...)

		after, err := i.deps.Packages.Packages(res.EnvFile)
		if err != nil {
			return fmt.Errorf("reading packages from %s: %w", res.EnvFile, err)
		}
		if len(after) >= len(current) {
			i.deps.Logger.Warn("environment file did not shrink",
				zap.Strings("implicated", outcome.Packages),
				zap.Int("packages", len(after)))
			res.Outcome = OutcomeStalled
			return nil
		}

		if err := wait(ctx, i.deps.Debounce); err != nil {
			return err
		}
	}
}

// Activate runs "conda activate" once for the derived environment name.
// It returns true when the binary, environment file and name were all
// resolved, regardless of what the activation command reports. A command
// that fails to start also returns true: the spawn error goes to the
// observer as a diagnostic, since activation is best effort.
func (i *Installer) Activate(ctx context.Context, explicitFile string) bool {
	bin, err := i.deps.Binary.Resolve()
	if err != nil {
		i.deps.Logger.Debug("conda binary not resolved", zap.Error(err))
		i.deps.Observer.Skipped(ReasonNoBinary)
		return false
	}

	envFile := i.deps.Locator.Locate(explicitFile)
	if envFile == "" {
		i.deps.Observer.Skipped(ReasonNoEnvFile)
		return false
	}
	i.deps.Observer.EnvFileDetected(envFile)

	envName := i.deps.Declared.Name(envFile)
	if envName == "" {
		i.deps.Observer.Skipped(ReasonNoEnvName)
		return false
	}

	command := ActivateCommand(bin, envName)
	i.deps.Observer.CommandStarting(command)
	out, err := i.deps.Executor.Execute(ctx, command)
	if err != nil {
		i.deps.Logger.Error("activation command did not start", zap.Error(err))
		i.deps.Observer.Diagnostic(err.Error())
		return true
	}
	i.deps.Observer.Diagnostic(out.Diagnostic)
	return true
}

func (i *Installer) skip(res Result, reason Reason) Result {
	res.Outcome = OutcomeSkipped
	res.Reason = reason
	i.deps.Observer.Skipped(reason)
	i.deps.Observer.Finished(res)
	return res
}

// wait pauses for d unless ctx is cancelled first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting before retry: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
