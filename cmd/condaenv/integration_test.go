package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"condaenv/internal/envfile"
)

// Helper to build the condaenv binary for integration tests
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}

	binPath := filepath.Join(t.TempDir(), "condaenv")
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to build condaenv binary: %v\nOutput: %s", err, output)
	}
	return binPath
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func TestBinary_ExitCodes(t *testing.T) {
	binPath := buildBinary(t)

	tests := []struct {
		name    string
		content string
		conda   func(env testEnv) string
		want    int
	}{
		{
			name:    "prunes and succeeds",
			content: sampleEnv,
			conda:   func(env testEnv) string { return env.conda },
			want:    0,
		},
		{
			name:    "pip failure",
			content: "name: demo\ndependencies:\n  - broken-pip\n",
			conda:   func(env testEnv) string { return env.conda },
			want:    2,
		},
		{
			name:    "conda missing",
			content: sampleEnv,
			conda:   func(env testEnv) string { return filepath.Join(env.dir, "missing") },
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t, tt.content)

			cmd := exec.Command(binPath, "install", "--file", env.envFile, "--conda", tt.conda(env))
			cmd.Env = env.environ
			cmd.Stdin = bytes.NewReader(nil)
			var stderr bytes.Buffer
			cmd.Stderr = &stderr

			err := cmd.Run()
			if got := exitCodeOf(err); got != tt.want {
				t.Errorf("exit code = %d, want %d\nstderr: %s", got, tt.want, stderr.String())
			}
		})
	}
}

func TestBinary_StdinNotTerminalUsesDeclaredName(t *testing.T) {
	binPath := buildBinary(t)
	env := setupTestEnv(t, "name: declared\ndependencies:\n  - numpy\n")

	cmd := exec.Command(binPath, "install", "--file", env.envFile, "--conda", env.conda)
	cmd.Env = env.environ
	cmd.Stdin = bytes.NewReader([]byte("ignored\n"))
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if !bytes.Contains(stdout.Bytes(), []byte("installed into declared\n")) {
		t.Errorf("stdout = %q, want the declared name", stdout.String())
	}

	pkgs, err := envfile.Packages(env.envFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 {
		t.Errorf("environment file changed: %v", pkgs)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "history", "declared.json")); err != nil {
		t.Errorf("history record not written: %v", err)
	}
}
