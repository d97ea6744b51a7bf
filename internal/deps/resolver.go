package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrMissingCommand is returned when none of the requested commands resolve.
var ErrMissingCommand = errors.New("missing command")

// LookPathFunc resolves an executable name to a path.
type LookPathFunc func(file string) (string, error)

// CommandResolver finds installed executables on PATH.
type CommandResolver struct {
	lookPath LookPathFunc
}

// NewCommandResolver returns a resolver backed by exec.LookPath.
func NewCommandResolver() *CommandResolver {
	return &CommandResolver{lookPath: exec.LookPath}
}

// NewCommandResolverWithLookup returns a resolver using a custom lookup.
func NewCommandResolverWithLookup(lookup LookPathFunc) *CommandResolver {
	if lookup == nil {
		lookup = exec.LookPath
	}
	return &CommandResolver{lookPath: lookup}
}

// RequireAnyCommand returns the first candidate that resolves, in order.
func (r *CommandResolver) RequireAnyCommand(candidates []string) (string, error) {
	lookup := exec.LookPath
	if r != nil && r.lookPath != nil {
		lookup = r.lookPath
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		name := strings.TrimSpace(candidate)
		if name == "" {
			continue
		}
		tried = append(tried, name)
		resolved, err := lookup(name)
		if err != nil {
			continue
		}
		return resolved, nil
	}
	if len(tried) == 0 {
		return "", fmt.Errorf("%w: no candidates given", ErrMissingCommand)
	}
	return "", fmt.Errorf("%w: none of %s found", ErrMissingCommand, strings.Join(tried, ", "))
}
