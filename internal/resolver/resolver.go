package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/vk/portabundle/internal/config"
	"github.com/vk/portabundle/internal/ctxlog"
	"github.com/vk/portabundle/internal/fsutil"
	"github.com/vk/portabundle/internal/model"
)

// Request is the resolver input taken from the manifest.
type Request struct {
	Modules    []string
	Libraries  []string
	Exclusions []string
}

// LibraryLocator finds host libraries by name.
type LibraryLocator interface {
	LocateLibrary(name string) (lib *model.HostLibrary, ok bool, err error)
	SearchPaths() []string
}

// Resolution is the outcome of a successful resolve.
type Resolution struct {
	Set *model.InclusionSet
	// Modules are the included modules, sorted by name.
	Modules  []Module
	Excluded []string
	Warnings []string
}

// Resolver computes the InclusionSet.
type Resolver struct {
	Finder    ModuleFinder
	Libraries LibraryLocator
}

// NewFromManifest wires a resolver to the filesystem layout a manifest
// describes.
func NewFromManifest(m *config.Manifest) *Resolver {
	return &Resolver{
		Finder:    &FSFinder{Paths: m.ModuleSearchPaths(), Suffixes: m.ModuleSuffixes},
		Libraries: &ManifestLibraries{Manifest: m},
	}
}

// Resolve expands req into the InclusionSet. It fails only when an
// explicitly requested name cannot be located or the module tree cannot be
// read.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	logger := ctxlog.FromContext(ctx)
	excl, bad := NewExclusions(req.Exclusions)

	res := &Resolution{Set: model.NewInclusionSet()}
	for _, p := range bad {
		res.warn("exclusion pattern %q is not a valid glob; matching it literally", p)
	}

	expanded := make(map[string]Module)
	for _, name := range dedupe(req.Modules) {
		if p, ok := excl.Match(name); ok {
			res.warn("module %q is explicitly requested but excluded by pattern %q; exclusion wins", name, p)
			continue
		}
		mod, ok, err := r.Finder.Locate(name)
		if err != nil {
			return nil, fmt.Errorf("locate module %q: %w", name, err)
		}
		if !ok {
			return nil, &UnresolvedModuleError{Kind: "module", Name: name, Searched: r.Finder.SearchPaths()}
		}
		expanded[mod.Name] = mod

		subs, err := r.Finder.Submodules(mod)
		if err != nil {
			return nil, fmt.Errorf("expand module %q: %w", name, err)
		}
		for _, sub := range subs {
			expanded[sub.Name] = sub
		}
		logger.Debug("Module expanded.", "module", name, "submodules", len(subs))
	}

	// Exclusion is the final pass over the expanded set.
	excluded := make(map[string]struct{})
	for _, name := range dedupe(req.Modules) {
		if _, ok := excl.Match(name); ok {
			excluded[name] = struct{}{}
		}
	}
	for name, mod := range expanded {
		if _, ok := excl.Match(name); ok {
			excluded[name] = struct{}{}
			continue
		}
		res.Set.Modules[name] = struct{}{}
		res.Modules = append(res.Modules, mod)
	}
	sort.Slice(res.Modules, func(i, j int) bool { return res.Modules[i].Name < res.Modules[j].Name })

	for _, name := range dedupe(req.Libraries) {
		if p, ok := excl.Match(name); ok {
			res.warn("library %q is explicitly requested but excluded by pattern %q; exclusion wins", name, p)
			excluded[name] = struct{}{}
			continue
		}
		lib, ok, err := r.Libraries.LocateLibrary(name)
		if err != nil {
			return nil, fmt.Errorf("locate library %q: %w", name, err)
		}
		if !ok {
			return nil, &UnresolvedModuleError{Kind: "library", Name: name, Searched: r.Libraries.SearchPaths()}
		}
		res.Set.Libraries[name] = lib
	}

	for _, p := range excl.Unused() {
		res.warn("exclusion pattern %q matched nothing", p)
	}
	for name := range excluded {
		res.Excluded = append(res.Excluded, name)
	}
	sort.Strings(res.Excluded)

	logger.Debug("Inclusion set resolved.",
		"modules", len(res.Set.Modules),
		"libraries", len(res.Set.Libraries),
		"excluded", len(res.Excluded),
	)
	return res, nil
}

func (r *Resolution) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ManifestLibraries locates libraries declared by `library` blocks first and
// falls back to a directory of the same name under the module paths.
type ManifestLibraries struct {
	Manifest *config.Manifest
}

func (l *ManifestLibraries) SearchPaths() []string {
	return append([]string{"library blocks"}, l.Manifest.ModuleSearchPaths()...)
}

func (l *ManifestLibraries) LocateLibrary(name string) (*model.HostLibrary, bool, error) {
	if def, ok := l.Manifest.Libraries[name]; ok {
		return l.Manifest.HostLibrary(def), true, nil
	}
	for _, p := range l.Manifest.ModuleSearchPaths() {
		dir := filepath.Join(p, name)
		if fsutil.IsDir(dir) {
			return &model.HostLibrary{
				Name:        name,
				Root:        dir,
				PrivateDirs: append([]string{}, config.DefaultPrivateDirs...),
				Suffixes:    append([]string{}, config.DefaultBinarySuffixes...),
			}, true, nil
		}
	}
	return nil, false, nil
}
