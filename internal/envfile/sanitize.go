package envfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RemovePackages rewrites the environment file in place, dropping every
// top-level conda dependency that matches one of pkgs (by declared spec or
// by package name). Comments and the order of remaining entries are kept.
// It returns the declared entries that were removed.
func RemovePackages(path string, pkgs []string) ([]string, error) {
	if len(pkgs) == 0 {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat environment file: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	deps := dependenciesNode(&doc)
	if deps == nil {
		return nil, nil
	}

	targets := make(map[string]bool, len(pkgs)*2)
	for _, p := range pkgs {
		targets[strings.TrimSpace(p)] = true
		targets[PackageName(p)] = true
	}

	var removed []string
	kept := deps.Content[:0]
	for _, item := range deps.Content {
		if item.Kind == yaml.ScalarNode {
			value := strings.TrimSpace(item.Value)
			if targets[value] || targets[PackageName(value)] {
				removed = append(removed, value)
				continue
			}
		}
		kept = append(kept, item)
	}
	deps.Content = kept

	if len(removed) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode environment file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode environment file: %w", err)
	}

	if err := writeAtomic(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return nil, err
	}
	return removed, nil
}

// dependenciesNode finds the "dependencies" sequence in a parsed document.
func dependenciesNode(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "dependencies" && root.Content[i+1].Kind == yaml.SequenceNode {
			return root.Content[i+1]
		}
	}
	return nil
}

// writeAtomic writes to a temp file next to path, then renames over it.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".condaenv-*.yml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace environment file: %w", err)
	}
	return nil
}
