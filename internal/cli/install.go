package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"condaenv/internal/history"
	"condaenv/internal/install"
)

func newInstallCmd(app *App) *cobra.Command {
	var (
		file string
		name string
		opts installerOptions
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the environment file into a conda environment",
		Long: `Runs "conda env update --file <file> --name <name>". Packages that conda
reports as unresolvable, unsatisfiable or unavailable are removed from the
environment file and the update is retried.

Without --name, the name declared in the environment file is offered at an
interactive prompt (or used directly when stdin is not a terminal).

Exit codes: 0 success or nothing to do, 1 conda missing or install failed,
2 pip packages failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.debounceSet = cmd.Flags().Changed("debounce")
			cfg := app.config(file, name, opts)

			res, err := app.installer(cfg, opts).Install(cmd.Context(), install.Request{
				EnvFile: cfg.EnvFile,
				EnvName: cfg.EnvName,
			})
			if err != nil {
				return err
			}

			if res.Outcome != install.OutcomeSkipped {
				record := history.FromResult(res, app.Now())
				if err := history.Capture(&record); err != nil {
					app.Logger.Warn("failed to fingerprint environment file", zap.Error(err))
				}
				if err := app.historyStore().Save(record); err != nil {
					app.Logger.Warn("failed to save install history", zap.Error(err))
				}
			}

			if code := OutcomeCode(res); code != ExitOK {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Environment file (default: environment.yml in the current directory)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Conda environment name")
	cmd.Flags().StringVar(&opts.conda, "conda", "", "Path to the conda binary")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Pause between retries (default 1s)")
	return cmd
}

func newActivateCmd(app *App) *cobra.Command {
	var (
		file string
		opts installerOptions
	)

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Activate the conda environment declared in the environment file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.config(file, "", opts)
			if !app.installer(cfg, opts).Activate(cmd.Context(), cfg.EnvFile) {
				return &ExitError{Code: ExitFailure}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Environment file (default: environment.yml in the current directory)")
	cmd.Flags().StringVar(&opts.conda, "conda", "", "Path to the conda binary")
	return cmd
}
