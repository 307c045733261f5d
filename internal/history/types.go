package history

import (
	"time"

	"condaenv/internal/install"
)

// Record is the persisted summary of one install run.
type Record struct {
	EnvName     string    `json:"envName"`
	EnvFile     string    `json:"envFile"`
	Command     string    `json:"command"`
	Outcome     string    `json:"outcome"`
	Attempts    int       `json:"attempts"`
	Removed     []string  `json:"removed,omitempty"`     // entries pruned from the env file
	PipPackages []string  `json:"pipPackages,omitempty"` // set when pip failed
	Packages    []string  `json:"packages,omitempty"`    // conda packages left after the install
	Fingerprint string    `json:"fingerprint,omitempty"` // env file hash after the install
	Timestamp   time.Time `json:"timestamp"`
}

// Summary is a lightweight view for listing records.
type Summary struct {
	EnvName   string    `json:"envName"`
	Outcome   string    `json:"outcome"`
	Attempts  int       `json:"attempts"`
	Removed   int       `json:"removed"`
	Timestamp time.Time `json:"timestamp"`
}

// FromResult builds a record for an install result.
func FromResult(res install.Result, at time.Time) Record {
	return Record{
		EnvName:     res.EnvName,
		EnvFile:     res.EnvFile,
		Command:     res.Command,
		Outcome:     res.Outcome.String(),
		Attempts:    res.Attempts,
		Removed:     res.Removed,
		PipPackages: res.PipPackages,
		Timestamp:   at.UTC().Truncate(time.Second),
	}
}
