package classify

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const (
	resolveFixture = `Collecting package metadata (repodata.json): done
Solving environment: failed

ResolvePackageNotFound: 
  - foo-bad-pkg==1.0
  - libgfortran=3.0.1

`
	unsatisfiableFixture = `UnsatisfiableError: The following specifications were found to be in conflict:
  - numpy=1.16 -> python[version='>=3.7,<3.8.0a0']
  - tensorflow=1.4
Use "conda info <package>" to see the dependencies for each package.
`
	notFoundFixture = `PackagesNotFoundError: The following packages are not available from current channels:

  - mkl-service==2.3

Current channels:

  - https://repo.anaconda.com/pkgs/main/linux-64
  - numpy
`
	chainFixture = `UnsatisfiableError: The following specifications were found to be incompatible with each other:

Output in format: Requested package -> Available versions

Package python conflicts for:
foo-bad-pkg=1.0 -> python[version='>=2.7,<2.8.0a0']
python=3.9

Package numpy conflicts for:
  foo-bad-pkg=1.0 -> numpy[version='<1.10']
`
	pipFixture = `Pip subprocess error:
ERROR: Could not find a version that satisfies the requirement nonexistent-pkg==9.9

CondaEnvException: Pip failed
`
)

var current = []string{"python=3.7", "numpy=1.16", "scipy", "foo-bad-pkg=1.0", "tensorflow=1.4", "mkl-service"}

func TestPatterns_Recoverable(t *testing.T) {
	p := NewPatterns()

	tests := []struct {
		name     string
		text     string
		category Category
		pkgs     []string
	}{
		{"unresolved", resolveFixture, CategoryUnresolved, []string{"foo-bad-pkg=1.0"}},
		{"unsatisfiable", unsatisfiableFixture, CategoryUnsatisfiable, []string{"numpy=1.16", "tensorflow=1.4"}},
		{"not found stops at channel list", notFoundFixture, CategoryUnavailable, []string{"mkl-service"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, pkgs, ok := p.Recoverable(tt.text, current)
			if !ok {
				t.Fatal("expected recoverable match")
			}
			if category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, category)
			}
			if !reflect.DeepEqual(pkgs, tt.pkgs) {
				t.Errorf("expected packages %v, got %v", tt.pkgs, pkgs)
			}
		})
	}
}

func TestPatterns_RecoverableFallsBackToWords(t *testing.T) {
	p := NewPatterns()
	text := "UnsatisfiableError: scipy conflicts with your pinned python."

	category, pkgs, ok := p.Recoverable(text, current)
	if !ok {
		t.Fatal("expected recoverable match")
	}
	if category != CategoryUnsatisfiable {
		t.Errorf("expected unsatisfiable, got %s", category)
	}
	if !reflect.DeepEqual(pkgs, []string{"python=3.7", "scipy"}) {
		t.Errorf("unexpected packages %v", pkgs)
	}
}

func TestPatterns_BareChainsImplicateOnlyTheHead(t *testing.T) {
	p := NewPatterns()
	declared := []string{"python=3.9", "numpy", "foo-bad-pkg=1.0"}

	category, pkgs, ok := p.Recoverable(chainFixture, declared)
	if !ok {
		t.Fatal("expected recoverable match")
	}
	if category != CategoryUnsatisfiable {
		t.Errorf("expected unsatisfiable, got %s", category)
	}
	if !reflect.DeepEqual(pkgs, []string{"foo-bad-pkg=1.0"}) {
		t.Errorf("expected only the chain head, got %v", pkgs)
	}
}

func TestPatterns_WordFallbackIgnoresChainsAndHeaders(t *testing.T) {
	p := NewPatterns()
	text := "UnsatisfiableError:\nPackage python conflicts for:\nsomething-undeclared -> python\nscipy is pinned too low.\n"

	_, pkgs, ok := p.Recoverable(text, []string{"python=3.9", "scipy"})
	if !ok {
		t.Fatal("expected recoverable match")
	}
	if !reflect.DeepEqual(pkgs, []string{"scipy"}) {
		t.Errorf("expected [scipy], got %v", pkgs)
	}
}

// Feature: classify, Property: dependencies of a chain are never implicated.
func TestPatterns_ChainTailNeverImplicated_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("only heads of chains are implicated", prop.ForAll(
		func(head, tail string, bulleted bool) bool {
			if head == tail {
				return true
			}
			line := head + "=1.0 -> " + tail + "[version='>=3']"
			if bulleted {
				line = "  - " + line
			}
			text := "UnsatisfiableError: conflicts:\n\nPackage " + tail + " conflicts for:\n" + line + "\n"

			_, pkgs, ok := NewPatterns().Recoverable(text, []string{tail + "=3.9", head + "=1.0"})
			return ok && reflect.DeepEqual(pkgs, []string{head + "=1.0"})
		},
		gen.Identifier().Map(strings.ToLower),
		gen.Identifier().Map(strings.ToLower),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestPatterns_MarkerWithoutCurrentPackages(t *testing.T) {
	p := NewPatterns()
	text := "ResolvePackageNotFound:\n  - something-else\n"

	if _, _, ok := p.Recoverable(text, current); ok {
		t.Error("a marker naming no current package must not be recoverable")
	}
}

func TestPatterns_WordBoundaries(t *testing.T) {
	p := NewPatterns()
	text := "UnsatisfiableError: numpy-base is incompatible"

	if _, pkgs, ok := p.Recoverable(text, []string{"numpy"}); ok {
		t.Errorf("numpy must not match numpy-base, got %v", pkgs)
	}
}

func TestPatterns_PipFailed(t *testing.T) {
	p := NewPatterns()

	if !p.PipFailed(pipFixture) {
		t.Error("expected pip failure")
	}
	if p.PipFailed(resolveFixture) {
		t.Error("resolve error is not a pip failure")
	}
}

func TestClassify(t *testing.T) {
	p := NewPatterns()

	tests := []struct {
		name string
		text string
		kind Kind
	}{
		{"empty", "", KindClean},
		{"whitespace", "  \n", KindClean},
		{"recoverable", resolveFixture, KindRecoverable},
		{"pip", pipFixture, KindPipFailure},
		{"both prefers recoverable", resolveFixture + pipFixture, KindRecoverable},
		{"unknown", "CondaHTTPError: HTTP 000 CONNECTION FAILED", KindUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(p, tt.text, current)
			if out.Kind != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, out.Kind)
			}
			if out.Kind != KindRecoverable && (out.Category != "" || out.Packages != nil) {
				t.Errorf("non-recoverable outcome carries data: %+v", out)
			}
		})
	}
}

// emptyRecoverable reports a match without packages.
type emptyRecoverable struct{ pip bool }

func (e emptyRecoverable) Recoverable(string, []string) (Category, []string, bool) {
	return CategoryUnresolved, nil, true
}

func (e emptyRecoverable) PipFailed(string) bool { return e.pip }

func TestClassify_EmptyImplicatedSetIsNotRecoverable(t *testing.T) {
	if out := Classify(emptyRecoverable{}, "error", current); out.Kind != KindUnclassified {
		t.Errorf("expected unclassified, got %s", out.Kind)
	}
	if out := Classify(emptyRecoverable{pip: true}, "error", current); out.Kind != KindPipFailure {
		t.Errorf("expected pip failure, got %s", out.Kind)
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindClean:        "clean",
		KindRecoverable:  "recoverable",
		KindPipFailure:   "pip_failure",
		KindUnclassified: "unclassified",
		Kind(42):         "unknown",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), k.String(), want)
		}
	}
}

// Property: text matching both a recoverable marker and a pip marker is recoverable.
func TestClassify_Precedence_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	p := NewPatterns()

	properties.Property("recoverable wins over pip failure", prop.ForAll(
		func(name string, pipFirst bool) bool {
			pkgs := []string{name + "=1.0", "zzz-other"}
			recoverable := "ResolvePackageNotFound:\n  - " + name + "==1.0\n\n"
			text := recoverable + pipFixture
			if pipFirst {
				text = pipFixture + recoverable
			}
			out := Classify(p, text, pkgs)
			return out.Kind == KindRecoverable &&
				len(out.Packages) == 1 && out.Packages[0] == name+"=1.0"
		},
		gen.RegexMatch(`[a-y][a-z0-9-]{2,10}`),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
