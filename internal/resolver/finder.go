package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/portabundle/internal/fsutil"
)

// Module is one located logical module.
type Module struct {
	Name string
	// Root is the search path the module was found under. Destinations of
	// its files are relative to it.
	Root string
	// Path is the package directory or the leaf module file.
	Path    string
	Package bool
}

// ModuleFinder locates modules and their submodules.
type ModuleFinder interface {
	// Locate finds a module by dotted name. ok is false when it does not exist.
	Locate(name string) (mod Module, ok bool, err error)
	// Submodules returns every module nested under mod, at any depth.
	Submodules(mod Module) ([]Module, error)
	// Files returns the files that belong to mod itself, excluding files of
	// nested submodules.
	Files(mod Module) ([]string, error)
	// SearchPaths describes where the finder looks, for error messages.
	SearchPaths() []string
}

// FSFinder maps dotted module names onto directories and files under a list
// of search paths: `a.b` is either the package `<path>/a/b/` or the leaf
// `<path>/a/b<suffix>`.
type FSFinder struct {
	Paths    []string
	Suffixes []string
}

func (f *FSFinder) SearchPaths() []string { return f.Paths }

func (f *FSFinder) Locate(name string) (Module, bool, error) {
	if !validName(name) {
		return Module{}, false, nil
	}
	rel := filepath.Join(strings.Split(name, ".")...)
	for _, root := range f.Paths {
		dir := filepath.Join(root, rel)
		if fsutil.IsDir(dir) {
			return Module{Name: name, Root: root, Path: dir, Package: true}, true, nil
		}
		for _, suffix := range f.Suffixes {
			file := dir + suffix
			if fsutil.IsFile(file) {
				return Module{Name: name, Root: root, Path: file}, true, nil
			}
		}
	}
	return Module{}, false, nil
}

func (f *FSFinder) Submodules(mod Module) ([]Module, error) {
	if !mod.Package {
		return nil, nil
	}
	var out []Module
	entries, err := os.ReadDir(mod.Path)
	if err != nil {
		return nil, fmt.Errorf("read package %s: %w", mod.Name, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			child := Module{
				Name:    mod.Name + "." + e.Name(),
				Root:    mod.Root,
				Path:    filepath.Join(mod.Path, e.Name()),
				Package: true,
			}
			if !validName(child.Name) {
				continue
			}
			out = append(out, child)
			nested, err := f.Submodules(child)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		stem, ok := f.moduleStem(e.Name())
		if !ok || stem == packageInit {
			continue
		}
		child := Module{Name: mod.Name + "." + stem, Root: mod.Root, Path: filepath.Join(mod.Path, e.Name())}
		if validName(child.Name) {
			out = append(out, child)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FSFinder) Files(mod Module) ([]string, error) {
	if !mod.Package {
		return []string{mod.Path}, nil
	}
	entries, err := os.ReadDir(mod.Path)
	if err != nil {
		return nil, fmt.Errorf("read package %s: %w", mod.Name, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		// Sibling leaf modules are submodules in their own right, except the
		// package initializer which belongs to the package.
		if stem, ok := f.moduleStem(e.Name()); ok && stem != packageInit {
			continue
		}
		files = append(files, filepath.Join(mod.Path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

const packageInit = "__init__"

func (f *FSFinder) moduleStem(file string) (string, bool) {
	for _, suffix := range f.Suffixes {
		if strings.HasSuffix(file, suffix) && len(file) > len(suffix) {
			return strings.TrimSuffix(file, suffix), true
		}
	}
	return "", false
}

// validName rejects names that cannot be dotted module paths.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" || strings.ContainsAny(part, `/\ `) {
			return false
		}
	}
	return true
}

// StaticFinder serves a fixed module tree. Names map to the names nested
// under them; the tree is taken as authoritative and has no files.
type StaticFinder struct {
	Tree map[string][]string
}

func (s *StaticFinder) SearchPaths() []string { return []string{"<static>"} }

func (s *StaticFinder) Locate(name string) (Module, bool, error) {
	if _, ok := s.Tree[name]; ok {
		return Module{Name: name, Package: len(s.Tree[name]) > 0}, true, nil
	}
	return Module{}, false, nil
}

func (s *StaticFinder) Submodules(mod Module) ([]Module, error) {
	var out []Module
	for _, child := range s.Tree[mod.Name] {
		out = append(out, Module{Name: child, Package: len(s.Tree[child]) > 0})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *StaticFinder) Files(Module) ([]string, error) { return nil, nil }
