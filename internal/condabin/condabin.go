// Package condabin locates the conda executable on the host.
package condabin

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// NotFoundMessage is shown to users when no conda binary can be located.
const NotFoundMessage = "Anaconda binary not found. Please make sure conda is installed and added to the PATH."

// ErrNotFound is returned when no conda binary can be located.
var ErrNotFound = errors.New("conda binary not found")

// installDirs are the conventional conda install prefixes under the user's home.
var installDirs = []string{"miniconda3", "anaconda3", "miniconda", "anaconda", "miniforge3", "mambaforge"}

// Finder resolves the conda binary path.
type Finder struct {
	Explicit string // --conda flag value
	CondaExe string // CONDA_EXE value
	HomeDir  string // user home, searched for install prefixes

	// LookPath searches PATH; defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// NewFinder creates a Finder for the current user.
func NewFinder(explicit, condaExe string) *Finder {
	home, _ := os.UserHomeDir()
	return &Finder{
		Explicit: explicit,
		CondaExe: condaExe,
		HomeDir:  home,
		LookPath: exec.LookPath,
	}
}

// Resolve returns the conda binary path.
//
// Search order:
//  1. Explicit path (flag)
//  2. CONDA_EXE environment variable
//  3. "conda" on PATH
//  4. Common install prefixes under the home directory and /opt/conda
func (f *Finder) Resolve() (string, error) {
	if f.Explicit != "" {
		if isExecutable(f.Explicit) {
			return f.Explicit, nil
		}
		return "", ErrNotFound
	}

	if f.CondaExe != "" && isExecutable(f.CondaExe) {
		return f.CondaExe, nil
	}

	lookPath := f.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if path, err := lookPath("conda"); err == nil {
		return path, nil
	}

	for _, candidate := range f.candidates() {
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

// candidates lists fallback locations in search order.
func (f *Finder) candidates() []string {
	var prefixes []string
	if f.HomeDir != "" {
		for _, dir := range installDirs {
			prefixes = append(prefixes, filepath.Join(f.HomeDir, dir))
		}
	}
	if runtime.GOOS != "windows" {
		prefixes = append(prefixes, "/opt/conda")
	}

	var out []string
	for _, prefix := range prefixes {
		if runtime.GOOS == "windows" {
			out = append(out,
				filepath.Join(prefix, "Scripts", "conda.exe"),
				filepath.Join(prefix, "condabin", "conda.bat"))
			continue
		}
		out = append(out, filepath.Join(prefix, "bin", "conda"))
	}
	return out
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
