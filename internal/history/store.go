// Package history persists one JSON record per conda environment so users
// can see which packages an install pruned from their environment file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"condaenv/internal/resolver"
)

// ErrRecordNotFound is returned when no record exists for an environment.
var ErrRecordNotFound = errors.New("history record not found")

// Store manages record persistence.
type Store struct {
	Dir string
}

// NewStore creates a store with the given directory.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultDir returns the default history directory (~/.condaenv/history).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".condaenv", "history")
	}
	return filepath.Join(home, ".condaenv", "history")
}

// ResolveDir returns the history directory from CONDAENV_HISTORY_DIR or the default.
func ResolveDir(environ []string) string {
	if dir, ok := resolver.Lookup(environ, resolver.EnvHistoryDir); ok && dir != "" {
		return dir
	}
	return DefaultDir()
}

// Save stores r, replacing any previous record for the same environment.
func (s *Store) Save(r Record) error {
	if r.EnvName == "" {
		return errors.New("history record has no environment name")
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}

	if err := os.WriteFile(s.path(r.EnvName), data, 0644); err != nil {
		return fmt.Errorf("failed to write history record: %w", err)
	}
	return nil
}

// Load retrieves the record for an environment.
func (s *Store) Load(envName string) (Record, error) {
	data, err := os.ReadFile(s.path(envName))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("invalid history record %s: %w", envName, err)
	}
	return r, nil
}

// List returns summaries of all stored records, newest first.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, err
	}

	summaries := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			continue
		}

		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}

		summaries = append(summaries, Summary{
			EnvName:   r.EnvName,
			Outcome:   r.Outcome,
			Attempts:  r.Attempts,
			Removed:   len(r.Removed),
			Timestamp: r.Timestamp,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].Timestamp.Equal(summaries[j].Timestamp) {
			return summaries[i].Timestamp.After(summaries[j].Timestamp)
		}
		return summaries[i].EnvName < summaries[j].EnvName
	})
	return summaries, nil
}

// Delete removes the record for an environment.
func (s *Store) Delete(envName string) error {
	err := os.Remove(s.path(envName))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}

// path maps an environment name to a file inside Dir. The encoding is
// reversible, so distinct names never share a file.
func (s *Store) path(envName string) string {
	safe := strings.ReplaceAll(url.PathEscape(envName), ":", "%3A")
	switch safe {
	case ".":
		safe = "%2E"
	case "..":
		safe = "%2E%2E"
	}
	return filepath.Join(s.Dir, safe+".json")
}
