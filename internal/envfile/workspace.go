package envfile

// Workspace exposes the environment files of one project directory.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a Workspace rooted at dir.
func NewWorkspace(dir string) *Workspace {
	return &Workspace{Dir: dir}
}

// Locate returns the environment file to use, or "" if none exists.
func (w *Workspace) Locate(explicit string) string {
	return Identify(explicit, w.Dir)
}

// Packages returns the conda dependencies declared in path.
func (w *Workspace) Packages(path string) ([]string, error) {
	return Packages(path)
}

// PipPackages returns the pip requirements declared in path.
func (w *Workspace) PipPackages(path string) ([]string, error) {
	return PipPackages(path)
}

// Name returns the environment name declared in path.
func (w *Workspace) Name(path string) string {
	return Name(path)
}

// RemovePackages drops pkgs from the dependencies of path.
func (w *Workspace) RemovePackages(path string, pkgs []string) ([]string, error) {
	return RemovePackages(path, pkgs)
}
