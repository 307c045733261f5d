package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"condaenv/internal/history"
)

func newHistoryCmd(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show what previous installs removed from environment files",
		Long: `Every install that runs conda leaves a record under
$CONDAENV_HISTORY_DIR (default ~/.condaenv/history), one per environment.

Without a subcommand, lists the records newest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistory(app, jsonOutput)
		},
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List install records",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listHistory(app, jsonOutput)
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Show the install record of an environment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				r, err := app.historyStore().Load(args[0])
				if err != nil {
					return notFound(err, args[0])
				}
				if jsonOutput {
					return writeJSON(app.Stdout, r)
				}
				fmt.Fprint(app.Stdout, FormatRecord(r))
				if r.Fingerprint != "" {
					d, err := history.Detect(r)
					if err != nil {
						return err
					}
					fmt.Fprint(app.Stdout, FormatDrift(d))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete the install record of an environment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.historyStore().Delete(args[0]); err != nil {
					return notFound(err, args[0])
				}
				fmt.Fprintf(app.Stdout, "Deleted history record: %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func listHistory(app *App, jsonOutput bool) error {
	summaries, err := app.historyStore().List()
	if err != nil {
		return fmt.Errorf("cannot list history: %w", err)
	}

	if jsonOutput {
		return writeJSON(app.Stdout, summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(app.Stdout, "No install history found")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(app.Stdout, "%s  %s  attempts=%d  removed=%d  %s\n",
			s.EnvName, s.Outcome, s.Attempts, s.Removed, s.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// FormatRecord renders one record for history show.
func FormatRecord(r history.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Environment: %s\n", r.EnvName)
	fmt.Fprintf(&sb, "File:        %s\n", r.EnvFile)
	fmt.Fprintf(&sb, "Outcome:     %s\n", r.Outcome)
	fmt.Fprintf(&sb, "Attempts:    %d\n", r.Attempts)
	fmt.Fprintf(&sb, "Command:     %s\n", r.Command)
	fmt.Fprintf(&sb, "Timestamp:   %s\n", r.Timestamp.Format(time.RFC3339))
	if len(r.Removed) > 0 {
		sb.WriteString("Removed:\n")
		for _, pkg := range r.Removed {
			fmt.Fprintf(&sb, "  - %s\n", pkg)
		}
	}
	if len(r.PipPackages) > 0 {
		sb.WriteString("Pip packages:\n")
		for _, pkg := range r.PipPackages {
			fmt.Fprintf(&sb, "  - %s\n", pkg)
		}
	}
	return sb.String()
}

// FormatDrift renders how the environment file changed since its install.
func FormatDrift(d history.Drift) string {
	switch {
	case d.Missing:
		return "File state:  missing\n"
	case !d.HasDrift:
		return "File state:  unchanged since install\n"
	}

	var sb strings.Builder
	sb.WriteString("File state:  modified since install\n")
	for _, c := range d.Changes {
		sign := "+"
		if c.Type == history.ChangeRemoved {
			sign = "-"
		}
		fmt.Fprintf(&sb, "  %s %s\n", sign, c.Package)
	}
	return sb.String()
}

func notFound(err error, name string) error {
	if errors.Is(err, history.ErrRecordNotFound) {
		return &ExitError{Code: ExitRecordNotFound, Err: fmt.Errorf("%w: %s", history.ErrRecordNotFound, name)}
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize history: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
