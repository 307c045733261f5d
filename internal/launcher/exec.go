// Package launcher runs package-manager commands through the system shell.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// ErrSpawn is wrapped by every error caused by a process that could not be started.
var ErrSpawn = errors.New("failed to start command")

// DefaultWaitDelay bounds how long Execute waits for output pipes after the
// command was killed by a cancelled context.
const DefaultWaitDelay = time.Second

// Result is the outcome of a single command execution.
type Result struct {
	Diagnostic string // decoded stderr, invalid UTF-8 replaced
	ExitCode   int
}

// Success reports whether the command produced no diagnostic output.
// The exit code is informational only.
func (r Result) Success() bool {
	return strings.TrimSpace(r.Diagnostic) == ""
}

// Executor runs a fully formed shell command line and waits for it.
type Executor interface {
	Execute(ctx context.Context, command string) (Result, error)
}

// ShellExecutor runs commands with "sh -c" ("cmd /C" on Windows).
type ShellExecutor struct {
	Shell     string    // defaults to "sh" or "cmd"
	Stdout    io.Writer // receives the command's stdout; defaults to os.Stdout
	Stderr    io.Writer // optional live copy of stderr
	Dir       string
	Environ   []string
	ShellFlag string // defaults to "-c" or "/C"

	// WaitDelay defaults to DefaultWaitDelay.
	WaitDelay time.Duration
}

// NewShellExecutor creates an executor that runs commands in dir with the
// given environment and streams their stdout to stdout.
func NewShellExecutor(stdout io.Writer, dir string, environ []string) *ShellExecutor {
	return &ShellExecutor{Stdout: stdout, Dir: dir, Environ: environ}
}

// Execute spawns the command, lets it run to completion and returns its
// diagnostic text. A non-zero exit status is not an error; failing to start
// the process is, and so is a context cancelled while the command ran.
func (e *ShellExecutor) Execute(ctx context.Context, command string) (Result, error) {
	shell, flag := e.shell()
	cmd := exec.CommandContext(ctx, shell, flag, command)
	cmd.Dir = e.Dir
	if len(e.Environ) > 0 {
		cmd.Env = e.Environ
	}
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	cmd.Stdout = e.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	var stderrBuf bytes.Buffer
	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, e.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s: %w", ErrSpawn, shell, err)
	}

	err := cmd.Wait()
	result := Result{
		Diagnostic: Decode(stderrBuf.Bytes()),
	}

	// A killed command exits with an empty diagnostic; it did not succeed.
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("command cancelled: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		return result, fmt.Errorf("waiting for command: %w", err)
	}

	return result, nil
}

func (e *ShellExecutor) shell() (string, string) {
	shell, flag := e.Shell, e.ShellFlag
	if shell == "" {
		if runtime.GOOS == "windows" {
			shell = "cmd"
		} else {
			shell = "sh"
		}
	}
	if flag == "" {
		if runtime.GOOS == "windows" {
			flag = "/C"
		} else {
			flag = "-c"
		}
	}
	return shell, flag
}

// Decode converts raw diagnostic bytes to text. Invalid UTF-8 sequences are
// replaced with U+FFFD; decoding never fails.
func Decode(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

// Quote wraps an argument in double quotes for the shell, escaping the
// characters that keep their meaning inside double quotes.
func Quote(arg string) string {
	return quoteFor(runtime.GOOS, arg)
}

func quoteFor(goos, arg string) string {
	if goos == "windows" {
		// cmd.exe has no backslash escapes; a doubled quote is literal.
		return `"` + strings.ReplaceAll(arg, `"`, `""`) + `"`
	}

	var sb strings.Builder
	sb.Grow(len(arg) + 2)
	sb.WriteByte('"')
	// Bytewise, so invalid UTF-8 in paths reaches the shell unchanged.
	for i := 0; i < len(arg); i++ {
		switch arg[i] {
		case '\\', '"', '$', '`':
			sb.WriteByte('\\')
		}
		sb.WriteByte(arg[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

// IsNotFound reports whether a spawn error means the shell was not found.
func IsNotFound(err error) bool {
	if !errors.Is(err, ErrSpawn) {
		return false
	}
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound)
}

// IsPermissionDenied reports whether a spawn error means the shell could not be executed.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrSpawn) && errors.Is(err, os.ErrPermission)
}
