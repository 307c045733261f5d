package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"condaenv/internal/cli"
)

func main() {
	exitCode := run(os.Args[1:], os.Environ(), os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// run executes the command line and returns the process exit code.
// It is separated from main() to enable testing.
func run(args []string, environ []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(&cli.App{
		Environ: environ,
		Dir:     ".",
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	})
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil && !isSilent(err) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func isSilent(err error) bool {
	var exitErr *cli.ExitError
	return errors.As(err, &exitErr) && exitErr.Silent()
}
