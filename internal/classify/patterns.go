// Package classify maps conda diagnostic output to retry decisions.
package classify

import (
	"regexp"
	"strings"

	"condaenv/internal/envfile"
)

// Marker ties a diagnostic header to a recoverable category.
type Marker struct {
	Text     string
	Category Category
}

// DefaultMarkers are the conda errors that name offending packages, in priority order.
var DefaultMarkers = []Marker{
	{Text: "ResolvePackageNotFound", Category: CategoryUnresolved},
	{Text: "UnsatisfiableError", Category: CategoryUnsatisfiable},
	{Text: "PackagesNotFoundError", Category: CategoryUnavailable},
}

// DefaultPipMarkers identify failures inside conda's pip sub-installer.
var DefaultPipMarkers = []string{
	"CondaEnvException: Pip failed",
	"Pip subprocess error",
	"ERROR: Could not find a version that satisfies",
}

// bulletRegex matches list entries such as "  - foo-bad-pkg==1.0".
var bulletRegex = regexp.MustCompile(`^\s*-\s+(\S.*)$`)

// conflictHeaderRegex matches the per-package headers newer conda prints
// above bare dependency chains, e.g. "Package python conflicts for:".
var conflictHeaderRegex = regexp.MustCompile(`^\s*Package \S+ conflicts for:\s*$`)

// chainArrow separates a requested package from what it depends on.
const chainArrow = "->"

// Patterns is the text-matching Classifier.
type Patterns struct {
	Markers    []Marker
	PipMarkers []string
}

// NewPatterns returns a classifier using the default conda markers.
func NewPatterns() *Patterns {
	return &Patterns{Markers: DefaultMarkers, PipMarkers: DefaultPipMarkers}
}

// Recoverable implements Classifier.
func (p *Patterns) Recoverable(diagnostic string, current []string) (Category, []string, bool) {
	for _, m := range p.Markers {
		idx := strings.Index(diagnostic, m.Text)
		if idx == -1 {
			continue
		}
		block := diagnostic[idx+len(m.Text):]
		pkgs := matchBullets(block, current)
		if len(pkgs) == 0 {
			pkgs = matchChains(block, current)
		}
		if len(pkgs) == 0 {
			pkgs = matchWords(prose(block), current)
		}
		if len(pkgs) > 0 {
			return m.Category, pkgs, true
		}
	}
	return "", nil, false
}

// PipFailed implements Classifier.
func (p *Patterns) PipFailed(diagnostic string) bool {
	for _, m := range p.PipMarkers {
		if strings.Contains(diagnostic, m) {
			return true
		}
	}
	return false
}

// matchBullets returns the current packages named by the bulleted list that
// follows a marker. The list ends at the first non-blank, non-bullet line
// after at least one bullet was seen.
func matchBullets(block string, current []string) []string {
	named := make(map[string]bool)
	seen := false
	for _, line := range strings.Split(block, "\n") {
		if m := bulletRegex.FindStringSubmatch(line); m != nil {
			seen = true
			if name := bulletName(m[1]); name != "" {
				named[name] = true
			}
			continue
		}
		if seen && strings.TrimSpace(line) != "" {
			break
		}
	}
	return selectCurrent(current, func(pkg string) bool {
		return named[envfile.PackageName(pkg)]
	})
}

// matchChains returns the current packages at the head of bare dependency
// chains ("foo-bad-pkg=1.0 -> python[version='>=2.7']"), the format newer
// conda uses for UnsatisfiableError.
func matchChains(block string, current []string) []string {
	named := make(map[string]bool)
	for _, line := range strings.Split(block, "\n") {
		if strings.Contains(line, chainArrow) {
			if name := bulletName(line); name != "" {
				named[name] = true
			}
		}
	}
	return selectCurrent(current, func(pkg string) bool {
		return named[envfile.PackageName(pkg)]
	})
}

// prose drops chain lines and conflict headers, which name dependencies
// that were not necessarily declared.
func prose(block string) string {
	var kept []string
	for _, line := range strings.Split(block, "\n") {
		if strings.Contains(line, chainArrow) || conflictHeaderRegex.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// bulletName extracts the package name from one bullet entry. Unsatisfiable
// conflicts are reported as chains ("numpy -> python[version='>=3.9']");
// only the head of a chain is a declared dependency.
func bulletName(entry string) string {
	head, _, _ := strings.Cut(entry, chainArrow)
	return envfile.PackageName(head)
}

// matchWords returns current packages whose name occurs as a whole word in block.
func matchWords(block string, current []string) []string {
	lower := strings.ToLower(block)
	return selectCurrent(current, func(pkg string) bool {
		name := envfile.PackageName(pkg)
		if name == "" {
			return false
		}
		re := regexp.MustCompile(`(^|[^a-z0-9_.-])` + regexp.QuoteMeta(name) + `($|[^a-z0-9_.-]|\.($|\s))`)
		return re.MatchString(lower)
	})
}

func selectCurrent(current []string, keep func(string) bool) []string {
	var out []string
	for _, pkg := range current {
		if keep(pkg) {
			out = append(out, pkg)
		}
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
