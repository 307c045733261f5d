package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"condaenv/internal/install"
)

// Prompter resolves the environment name for an install: the explicit
// value if given, otherwise the user's answer to a prompt that offers the
// name declared in the environment file.
type Prompter struct {
	In          io.Reader
	Out         io.Writer
	Interactive bool // false skips the prompt and uses the declared name
	Declared    install.NameDeriver
}

// NewPrompter creates a Prompter that only asks when in is a terminal.
func NewPrompter(in io.Reader, out io.Writer, declared install.NameDeriver) *Prompter {
	return &Prompter{
		In:          in,
		Out:         out,
		Interactive: isTerminal(in),
		Declared:    declared,
	}
}

// ResolveName implements install.NameResolver.
func (p *Prompter) ResolveName(explicit, envFile string) (string, error) {
	if name := strings.TrimSpace(explicit); name != "" {
		return name, nil
	}

	declared := p.Declared.Name(envFile)
	if !p.Interactive || p.In == nil {
		return declared, nil
	}

	fmt.Fprintf(p.Out, "Please provide a name for the conda environment [%s]: ", declared)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading environment name: %w", err)
	}
	if name := strings.TrimSpace(line); name != "" {
		return name, nil
	}
	return declared, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
