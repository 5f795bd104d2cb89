package layout

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/portabundle/internal/fsutil"
	"github.com/vk/portabundle/internal/model"
)

// EntryDestination is the fixed, mode-independent root position of the
// entry executable.
func EntryDestination(entryPoint string) string {
	return path.Base(filepath.ToSlash(entryPoint))
}

// LibraryDir is the bundle directory holding a library's binaries.
func LibraryDir(lib *model.HostLibrary) string {
	return model.CanonicalName(lib.Name)
}

// LibraryDestination places a file given relative to the library root.
func LibraryDestination(lib *model.HostLibrary, rel string) (string, error) {
	clean, err := relative(rel)
	if err != nil {
		return "", fmt.Errorf("library %s: %w", lib.Name, err)
	}
	return path.Join(LibraryDir(lib), clean), nil
}

// RelativeDestination places file relative to root, optionally under prefix.
func RelativeDestination(prefix, root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	clean, err := relative(rel)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return clean, nil
	}
	p, err := relative(prefix)
	if err != nil {
		return "", err
	}
	return path.Join(p, clean), nil
}

// relative normalizes rel and rejects paths escaping their root.
func relative(rel string) (string, error) {
	clean := fsutil.ToBundlePath(rel)
	if clean == "." || clean == "" {
		return "", fmt.Errorf("empty destination")
	}
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", fmt.Errorf("path %q escapes its root", rel)
	}
	return clean, nil
}
