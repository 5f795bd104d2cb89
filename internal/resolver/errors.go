package resolver

import (
	"fmt"
	"strings"
)

// UnresolvedModuleError reports an explicitly requested module or library
// that could not be located.
type UnresolvedModuleError struct {
	// Kind is "module" or "library".
	Kind     string
	Name     string
	Searched []string
}

func (e *UnresolvedModuleError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("unresolved %s %q", e.Kind, e.Name)
	}
	return fmt.Sprintf("unresolved %s %q: not found in %s", e.Kind, e.Name, strings.Join(e.Searched, ", "))
}
