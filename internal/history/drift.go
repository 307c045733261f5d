package history

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"condaenv/internal/envfile"
)

// ChangeType is how a package differs from the recorded install.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"   // declared now, not at install time
	ChangeRemoved ChangeType = "removed" // declared at install time, not now
)

// PackageChange is one package that differs from the record.
type PackageChange struct {
	Package string     `json:"package"`
	Type    ChangeType `json:"type"`
}

// Drift compares an environment file with its last recorded install.
type Drift struct {
	HasDrift     bool            `json:"hasDrift"`
	Missing      bool            `json:"missing"` // the file no longer exists
	RecordedHash string          `json:"recordedHash"`
	CurrentHash  string          `json:"currentHash,omitempty"`
	Changes      []PackageChange `json:"changes"`
}

// Fingerprint returns the sha256 of an environment file's content.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Capture records the current state of r.EnvFile in r.
func Capture(r *Record) error {
	content, err := os.ReadFile(r.EnvFile)
	if err != nil {
		return fmt.Errorf("failed to read environment file: %w", err)
	}
	spec, err := envfile.Parse(r.EnvFile, content)
	if err != nil {
		return err
	}
	r.Fingerprint = Fingerprint(content)
	r.Packages = spec.Dependencies
	return nil
}

// Detect compares the environment file on disk with the record.
func Detect(r Record) (Drift, error) {
	content, err := os.ReadFile(r.EnvFile)
	if err != nil {
		if os.IsNotExist(err) {
			return Drift{HasDrift: true, Missing: true, RecordedHash: r.Fingerprint, Changes: []PackageChange{}}, nil
		}
		return Drift{}, fmt.Errorf("failed to read environment file: %w", err)
	}
	spec, err := envfile.Parse(r.EnvFile, content)
	if err != nil {
		return Drift{}, err
	}
	return Compare(r, spec.Dependencies, Fingerprint(content)), nil
}

// Compare diffs the recorded package list against current.
func Compare(r Record, current []string, currentHash string) Drift {
	d := Drift{
		RecordedHash: r.Fingerprint,
		CurrentHash:  currentHash,
		Changes:      []PackageChange{},
	}
	if r.Fingerprint != "" && r.Fingerprint == currentHash {
		return d
	}

	recorded := make(map[string]bool, len(r.Packages))
	for _, p := range r.Packages {
		recorded[p] = true
	}
	now := make(map[string]bool, len(current))
	for _, p := range current {
		now[p] = true
	}

	for p := range now {
		if !recorded[p] {
			d.Changes = append(d.Changes, PackageChange{Package: p, Type: ChangeAdded})
		}
	}
	for p := range recorded {
		if !now[p] {
			d.Changes = append(d.Changes, PackageChange{Package: p, Type: ChangeRemoved})
		}
	}
	sort.Slice(d.Changes, func(i, j int) bool {
		if d.Changes[i].Type != d.Changes[j].Type {
			return d.Changes[i].Type < d.Changes[j].Type
		}
		return d.Changes[i].Package < d.Changes[j].Package
	})

	// A changed hash with identical packages is drift elsewhere in the file.
	d.HasDrift = len(d.Changes) > 0 || (r.Fingerprint != "" && r.Fingerprint != currentHash)
	return d
}
