package classify

// Kind describes how an install attempt's diagnostic text was classified.
type Kind int

const (
	// KindClean means the diagnostic text was empty.
	KindClean Kind = iota
	// KindRecoverable means specific packages block resolution and can be dropped.
	KindRecoverable
	// KindPipFailure means conda resolved but the pip sub-installer failed.
	KindPipFailure
	// KindUnclassified means the text matched no known pattern.
	KindUnclassified
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindClean:
		return "clean"
	case KindRecoverable:
		return "recoverable"
	case KindPipFailure:
		return "pip_failure"
	case KindUnclassified:
		return "unclassified"
	default:
		return "unknown"
	}
}

// Category labels a recoverable dependency error.
type Category string

const (
	CategoryUnresolved    Category = "unresolved"
	CategoryUnsatisfiable Category = "unsatisfiable"
	CategoryUnavailable   Category = "unavailable"
)

// Outcome is the result of classifying one diagnostic text.
// Exactly one Kind holds; Category and Packages are set only for KindRecoverable.
type Outcome struct {
	Kind     Kind
	Category Category
	Packages []string // implicated entries, exactly as declared in the current spec
}

// Classifier interprets package-manager diagnostic output.
type Classifier interface {
	// Recoverable reports the category and implicated packages when the text
	// names any of the current packages as the cause of a dependency error.
	Recoverable(diagnostic string, current []string) (Category, []string, bool)

	// PipFailed reports whether the text indicates a pip-layer failure.
	PipFailed(diagnostic string) bool
}

// Classify applies a Classifier with recoverable errors checked first.
func Classify(c Classifier, diagnostic string, current []string) Outcome {
	if isBlank(diagnostic) {
		return Outcome{Kind: KindClean}
	}
	if category, pkgs, ok := c.Recoverable(diagnostic, current); ok && len(pkgs) > 0 {
		return Outcome{Kind: KindRecoverable, Category: category, Packages: pkgs}
	}
	if c.PipFailed(diagnostic) {
		return Outcome{Kind: KindPipFailure}
	}
	return Outcome{Kind: KindUnclassified}
}
