package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecute_Success(t *testing.T) {
	requireShell(t)

	var stdout bytes.Buffer
	e := &ShellExecutor{Stdout: &stdout}

	result, err := e.Execute(context.Background(), "echo installed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Errorf("expected success, got diagnostic %q", result.Diagnostic)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
	if strings.TrimSpace(stdout.String()) != "installed" {
		t.Errorf("expected stdout passthrough, got %q", stdout.String())
	}
}

func TestExecute_CapturesStderr(t *testing.T) {
	requireShell(t)

	var stdout bytes.Buffer
	e := &ShellExecutor{Stdout: &stdout}

	result, err := e.Execute(context.Background(), "echo 'ResolvePackageNotFound:' >&2; exit 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() {
		t.Error("expected failure when stderr is non-empty")
	}
	if !strings.Contains(result.Diagnostic, "ResolvePackageNotFound") {
		t.Errorf("expected captured stderr, got %q", result.Diagnostic)
	}
	if result.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", result.ExitCode)
	}
}

func TestExecute_NonZeroExitWithoutDiagnosticIsSuccess(t *testing.T) {
	requireShell(t)

	e := &ShellExecutor{Stdout: &bytes.Buffer{}}
	result, err := e.Execute(context.Background(), "exit 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Error("empty diagnostic must count as success")
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestExecute_StderrMirror(t *testing.T) {
	requireShell(t)

	var mirror bytes.Buffer
	e := &ShellExecutor{Stdout: &bytes.Buffer{}, Stderr: &mirror}
	result, err := e.Execute(context.Background(), "echo warn >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror.String() != result.Diagnostic {
		t.Errorf("mirror %q differs from diagnostic %q", mirror.String(), result.Diagnostic)
	}
}

func TestExecute_InvalidUTF8IsReplaced(t *testing.T) {
	requireShell(t)

	e := &ShellExecutor{Stdout: &bytes.Buffer{}}
	result, err := e.Execute(context.Background(), `printf 'bad \377\376 bytes' >&2`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Diagnostic, "\uFFFD") {
		t.Errorf("expected replacement character, got %q", result.Diagnostic)
	}
	if !strings.HasPrefix(result.Diagnostic, "bad ") || !strings.HasSuffix(result.Diagnostic, " bytes") {
		t.Errorf("valid text must survive decoding, got %q", result.Diagnostic)
	}
}

func TestExecute_SpawnFailure(t *testing.T) {
	e := &ShellExecutor{Shell: "/nonexistent/shell-for-condaenv", ShellFlag: "-c", Stdout: &bytes.Buffer{}}

	_, err := e.Execute(context.Background(), "true")
	if err == nil {
		t.Fatal("expected spawn error")
	}
	if !errors.Is(err, ErrSpawn) {
		t.Errorf("expected ErrSpawn, got %v", err)
	}
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound to be true for %v", err)
	}
}

func TestDecode(t *testing.T) {
	if got := Decode([]byte("plain")); got != "plain" {
		t.Errorf("Decode(plain) = %q", got)
	}
	if got := Decode([]byte{'a', 0xff, 'b'}); got != "a\uFFFDb" {
		t.Errorf("Decode(invalid) = %q", got)
	}
	if got := Decode(nil); got != "" {
		t.Errorf("Decode(nil) = %q", got)
	}
}

func TestQuoteFor(t *testing.T) {
	tests := []struct {
		goos string
		in   string
		want string
	}{
		{"linux", "environment.yml", `"environment.yml"`},
		{"linux", `my "env"`, `"my \"env\""`},
		{"linux", "$(rm -rf ~)", `"\$(rm -rf ~)"`},
		{"linux", "a`b`", "\"a\\`b\\`\""},
		{"linux", `back\slash`, `"back\\slash"`},
		{"linux", "env\xff.yml", "\"env\xff.yml\""},
		{"windows", `C:\envs\my "env".yml`, `"C:\envs\my ""env"".yml"`},
	}

	for _, tt := range tests {
		if got := quoteFor(tt.goos, tt.in); got != tt.want {
			t.Errorf("quoteFor(%s, %q) = %s, want %s", tt.goos, tt.in, got, tt.want)
		}
	}
}

// Property: a quoted argument reaches the command unchanged.
func TestQuote_ShellRoundTrip_Property(t *testing.T) {
	requireShell(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("sh receives the original argument", prop.ForAll(
		func(arg string) bool {
			var stdout bytes.Buffer
			e := &ShellExecutor{Stdout: &stdout}
			_, err := e.Execute(context.Background(), "printf %s "+Quote(arg))
			if err != nil {
				return false
			}
			return stdout.String() == arg
		},
		gen.AnyString().SuchThat(func(s string) bool {
			return !strings.ContainsRune(s, 0) && !strings.ContainsRune(s, '\uFFFD')
		}),
	))

	properties.TestingRun(t)
}

func TestQuote_InvalidUTF8ReachesShellUnchanged(t *testing.T) {
	requireShell(t)

	arg := "env\xff\xfe.yml"
	var stdout bytes.Buffer
	e := &ShellExecutor{Stdout: &stdout}
	if _, err := e.Execute(context.Background(), "printf %s "+Quote(arg)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.String() != arg {
		t.Errorf("expected %q, got %q", arg, stdout.String())
	}
}

func TestExecute_CancelledCommandIsAnError(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// The backgrounded sleep keeps the stderr pipe open after sh is killed.
	e := &ShellExecutor{Stdout: &bytes.Buffer{}, WaitDelay: 200 * time.Millisecond}
	start := time.Now()
	result, err := e.Execute(ctx, "sleep 5 & sleep 5; true")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected an error for a cancelled command, got result %+v", result)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if errors.Is(err, ErrSpawn) {
		t.Errorf("cancellation after start is not a spawn error: %v", err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Execute took %v after cancellation", elapsed)
	}
}

func TestExecute_PermissionDeniedShell(t *testing.T) {
	requireShell(t)
	if os.Geteuid() == 0 {
		t.Skip("root can execute any file")
	}

	shell := filepath.Join(t.TempDir(), "sh")
	if err := os.WriteFile(shell, []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatal(err)
	}
	e := &ShellExecutor{Shell: shell, ShellFlag: "-c", Stdout: &bytes.Buffer{}}

	_, err := e.Execute(context.Background(), "true")
	if !IsPermissionDenied(err) {
		t.Errorf("expected IsPermissionDenied for %v", err)
	}
	if IsNotFound(err) {
		t.Errorf("permission error must not count as not found: %v", err)
	}
}

func TestSpawnClassifiers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		permission bool
	}{
		{"nil", nil, false, false},
		{"missing shell", fmt.Errorf("%w: sh: %w", ErrSpawn, exec.ErrNotFound), true, false},
		{"missing path", fmt.Errorf("%w: /bin/x: %w", ErrSpawn, os.ErrNotExist), true, false},
		{"not executable", fmt.Errorf("%w: sh: %w", ErrSpawn, os.ErrPermission), false, true},
		{"not a spawn error", fmt.Errorf("reading file: %w", os.ErrNotExist), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.notFound)
			}
			if got := IsPermissionDenied(tt.err); got != tt.permission {
				t.Errorf("IsPermissionDenied() = %v, want %v", got, tt.permission)
			}
		})
	}
}

func TestNewShellExecutor(t *testing.T) {
	var out bytes.Buffer
	e := NewShellExecutor(&out, "/work", []string{"PATH=/bin"})
	if e.Stdout != &out || e.Dir != "/work" || len(e.Environ) != 1 {
		t.Errorf("NewShellExecutor() = %+v", e)
	}
}
