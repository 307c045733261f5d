package envfile

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultNames are the environment file names searched for when none is given.
var DefaultNames = []string{"environment.yml", "environment.yaml"}

// PlatformName returns the platform-specific environment file name,
// e.g. "environment-linux.yml".
func PlatformName(goos string) string {
	switch goos {
	case "darwin":
		return "environment-macos.yml"
	case "windows":
		return "environment-windows.yml"
	default:
		return "environment-linux.yml"
	}
}

// Identify returns the environment file to use, or "" if none exists.
// An explicit path must exist; relative paths are resolved against dir.
// Without one, dir is searched for DefaultNames and then the platform variant.
func Identify(explicit, dir string) string {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) && dir != "" && dir != "." {
			path = filepath.Join(dir, path)
		}
		if isFile(path) {
			return path
		}
		return ""
	}

	candidates := append(append([]string{}, DefaultNames...), PlatformName(runtime.GOOS))
	for _, name := range candidates {
		path := name
		if dir != "" && dir != "." {
			path = filepath.Join(dir, name)
		}
		if isFile(path) {
			return path
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
