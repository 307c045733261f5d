package envfile

// Spec represents a conda environment file on disk.
type Spec struct {
	Path         string   // e.g., "environment.yml"
	Name         string   // value of the "name" key, may be empty
	Channels     []string // e.g., ["conda-forge", "defaults"]
	Dependencies []string // conda match specs, e.g., "numpy=1.16"
	Pip          []string // entries of the nested "- pip:" list
}
