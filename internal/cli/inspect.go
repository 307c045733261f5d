package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"condaenv/internal/envfile"
)

// ErrNoEnvFile is returned by inspect when no environment file is found.
var ErrNoEnvFile = errors.New("no conda environment file found")

func newInspectCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the name and packages of the environment file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.config(file, "", installerOptions{})
			path := envfile.Identify(cfg.EnvFile, app.Dir)
			if path == "" {
				return ErrNoEnvFile
			}
			spec, err := envfile.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprint(app.Stdout, FormatSpec(spec))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Environment file (default: environment.yml in the current directory)")
	return cmd
}

// FormatSpec renders an environment file for the inspect command.
func FormatSpec(spec envfile.Spec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File:     %s\n", spec.Path)
	name := spec.Name
	if name == "" {
		name = "(none)"
	}
	fmt.Fprintf(&sb, "Name:     %s\n", name)
	if len(spec.Channels) > 0 {
		fmt.Fprintf(&sb, "Channels: %s\n", strings.Join(spec.Channels, ", "))
	}

	fmt.Fprintf(&sb, "Conda packages (%d):\n", len(spec.Dependencies))
	for _, dep := range spec.Dependencies {
		fmt.Fprintf(&sb, "  - %s\n", dep)
	}
	if len(spec.Pip) > 0 {
		fmt.Fprintf(&sb, "Pip packages (%d):\n", len(spec.Pip))
		for _, dep := range spec.Pip {
			fmt.Fprintf(&sb, "  - %s\n", dep)
		}
	}
	return sb.String()
}
