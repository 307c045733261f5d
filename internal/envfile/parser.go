// Package envfile reads and rewrites conda environment files.
package envfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// envFile represents the YAML file structure
type envFile struct {
	Name         string      `yaml:"name"`
	Channels     []string    `yaml:"channels,omitempty"`
	Dependencies []yaml.Node `yaml:"dependencies,omitempty"`
}

// pipKey is the mapping key that nests pip requirements inside dependencies.
const pipKey = "pip"

// Parse parses YAML content into a Spec. The path is recorded as-is.
func Parse(path string, content []byte) (Spec, error) {
	var ef envFile
	if err := yaml.Unmarshal(content, &ef); err != nil {
		return Spec{}, fmt.Errorf("invalid YAML: %w", err)
	}

	spec := Spec{
		Path:     path,
		Name:     strings.TrimSpace(ef.Name),
		Channels: ef.Channels,
	}

	for i := range ef.Dependencies {
		node := &ef.Dependencies[i]
		switch node.Kind {
		case yaml.ScalarNode:
			if dep := strings.TrimSpace(node.Value); dep != "" {
				spec.Dependencies = append(spec.Dependencies, dep)
			}
		case yaml.MappingNode:
			pip, err := decodePip(node)
			if err != nil {
				return Spec{}, err
			}
			spec.Pip = append(spec.Pip, pip...)
		}
	}

	return spec, nil
}

// decodePip extracts the pip requirement list from a "- pip: [...]" entry.
func decodePip(node *yaml.Node) ([]string, error) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != pipKey {
			continue
		}
		var reqs []string
		if err := node.Content[i+1].Decode(&reqs); err != nil {
			return nil, fmt.Errorf("invalid pip section at line %d: %w", node.Line, err)
		}
		return reqs, nil
	}
	return nil, nil
}

// Load reads and parses an environment file from the given path.
func Load(path string) (Spec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Spec{}, err
		}
		return Spec{}, fmt.Errorf("failed to read environment file: %w", err)
	}

	return Parse(path, content)
}

// Packages returns the conda dependencies currently declared in the file.
func Packages(path string) ([]string, error) {
	spec, err := Load(path)
	if err != nil {
		return nil, err
	}
	return spec.Dependencies, nil
}

// PipPackages returns the pip requirements declared in the file.
func PipPackages(path string) ([]string, error) {
	spec, err := Load(path)
	if err != nil {
		return nil, err
	}
	return spec.Pip, nil
}

// Name returns the environment name declared in the file, or "" if absent
// or unreadable.
func Name(path string) string {
	spec, err := Load(path)
	if err != nil {
		return ""
	}
	return spec.Name
}

// PackageName reduces a conda match spec or pip requirement to its bare
// package name: "conda-forge::NumPy>=1.16" -> "numpy".
func PackageName(spec string) string {
	s := strings.TrimSpace(spec)
	if idx := strings.LastIndex(s, "::"); idx != -1 {
		s = s[idx+2:]
	}
	if idx := strings.IndexAny(s, "=<>!~ [;@"); idx != -1 {
		s = s[:idx]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
