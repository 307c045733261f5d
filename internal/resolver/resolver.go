package resolver

import (
	"strings"
	"time"
)

// Environment variables understood by condaenv.
const (
	EnvCondaExe   = "CONDA_EXE"
	EnvFile       = "CONDAENV_FILE"
	EnvName       = "CONDAENV_NAME"
	EnvHistoryDir = "CONDAENV_HISTORY_DIR"
	EnvDebounce   = "CONDAENV_DEBOUNCE"
)

// DefaultDebounce is the pause between a recoverable failure and the next attempt.
const DefaultDebounce = time.Second

// Config holds settings resolved from the process environment.
// Empty fields mean "not set"; flags override them at the CLI edge.
type Config struct {
	CondaExe   string
	EnvFile    string
	EnvName    string
	HistoryDir string
	Debounce   time.Duration
}

// Resolve reads condaenv settings from an environ slice (format: "KEY=VALUE").
// An unparseable CONDAENV_DEBOUNCE falls back to DefaultDebounce.
func Resolve(environ []string) Config {
	envMap := parseEnviron(environ)

	cfg := Config{
		CondaExe:   strings.TrimSpace(envMap[EnvCondaExe]),
		EnvFile:    strings.TrimSpace(envMap[EnvFile]),
		EnvName:    strings.TrimSpace(envMap[EnvName]),
		HistoryDir: strings.TrimSpace(envMap[EnvHistoryDir]),
		Debounce:   DefaultDebounce,
	}

	if raw, ok := envMap[EnvDebounce]; ok {
		if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d >= 0 {
			cfg.Debounce = d
		}
	}

	return cfg
}

// Lookup returns the value of a single variable from an environ slice.
func Lookup(environ []string, key string) (string, bool) {
	v, ok := parseEnviron(environ)[key]
	return v, ok
}

// parseEnviron converts an environ slice (["KEY=VALUE", ...]) into a map.
// Handles edge cases like empty values ("KEY=") and values containing "=" ("KEY=a=b").
func parseEnviron(environ []string) map[string]string {
	result := make(map[string]string)
	for _, entry := range environ {
		// Split on first "=" only - values can contain "="
		idx := strings.Index(entry, "=")
		if idx == -1 {
			continue
		}
		result[entry[:idx]] = entry[idx+1:]
	}
	return result
}
