// Package cli wires the condaenv commands together with cobra.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"condaenv/internal/condabin"
	"condaenv/internal/envfile"
	"condaenv/internal/history"
	"condaenv/internal/install"
	"condaenv/internal/launcher"
	"condaenv/internal/report"
	"condaenv/internal/resolver"
)

// App holds the process-level inputs shared by every command.
type App struct {
	Environ []string
	Dir     string // working directory searched for environment files
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer

	// Logger is built from --verbose when nil.
	Logger *zap.Logger
	// Executor overrides the shell executor.
	Executor launcher.Executor
	// Interactive overrides TTY detection for the name prompt.
	Interactive *bool
	Now         func() time.Time

	verbose  bool
	ownsLogs bool
}

// NewRootCommand builds the condaenv command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}
	if app.Dir == "" {
		app.Dir = "."
	}

	root := &cobra.Command{
		Use:   "condaenv",
		Short: "Install conda environments, pruning packages conda cannot resolve",
		Long: `condaenv installs the dependencies of a conda environment file with
"conda env update". When conda rejects packages as unresolvable,
unsatisfiable or unavailable, they are removed from the environment
file and the install is retried until it succeeds or cannot progress.

The environment file defaults to environment.yml in the current directory.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Logger != nil {
				return nil
			}
			config := zap.NewProductionConfig()
			if app.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			app.Logger = logger
			app.ownsLogs = true
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.ownsLogs && app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}
	root.SetIn(app.Stdin)
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newInstallCmd(app),
		newActivateCmd(app),
		newInspectCmd(app),
		newHistoryCmd(app),
	)
	return root
}

// installerOptions are the per-command overrides of the environment config.
type installerOptions struct {
	conda       string
	debounce    time.Duration
	debounceSet bool
}

// config merges flags over the environment.
func (a *App) config(file, name string, opts installerOptions) resolver.Config {
	cfg := resolver.Resolve(a.Environ)
	if file != "" {
		cfg.EnvFile = file
	}
	if name != "" {
		cfg.EnvName = name
	}
	if opts.debounceSet {
		cfg.Debounce = opts.debounce
	}
	return cfg
}

// installer assembles an Installer from the production collaborators.
// Only --conda is an explicit binary; CONDA_EXE is one step of the search.
func (a *App) installer(cfg resolver.Config, opts installerOptions) *install.Installer {
	ws := envfile.NewWorkspace(a.Dir)
	finder := condabin.NewFinder(opts.conda, cfg.CondaExe)

	prompter := NewPrompter(a.Stdin, a.Stderr, ws)
	if a.Interactive != nil {
		prompter.Interactive = *a.Interactive
	}

	executor := a.Executor
	if executor == nil {
		executor = launcher.NewShellExecutor(a.Stdout, a.Dir, a.Environ)
	}

	return install.New(install.Deps{
		Binary:    finder,
		Locator:   ws,
		Names:     prompter,
		Declared:  ws,
		Packages:  ws,
		Sanitizer: ws,
		Executor:  executor,
		Observer:  report.NewConsole(a.Stdout, a.Stderr, a.Logger),
		Logger:    a.Logger,
		Debounce:  cfg.Debounce,
	})
}

func (a *App) historyStore() *history.Store {
	return history.NewStore(history.ResolveDir(a.Environ))
}
