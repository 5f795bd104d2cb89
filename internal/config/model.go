package config

import (
	"path/filepath"

	"github.com/vk/portabundle/internal/model"
)

// Manifest is the unified representation of a build description.
type Manifest struct {
	// Dir is the directory relative paths are resolved against.
	Dir string

	Name          string
	EntryPoint    string
	OutputMode    model.OutputMode
	OutputDir     string
	AttachConsole bool

	ExplicitModules   []string
	ExplicitLibraries []string
	ExcludedPatterns  []string

	ModulePaths    []string
	ModuleSuffixes []string
	Prune          []string
	StoreRaw       []string

	Libraries map[string]*LibraryDefinition
	Data      []DataDefinition
	Launcher  LauncherDefinition
	Publish   *PublishDefinition
}

// LibraryDefinition is a `library` block.
type LibraryDefinition struct {
	Name string
	Root string
	// Binaries is nil when the block has no `binaries` attribute.
	Binaries       []string
	PrivateDirs    []string
	BinarySuffixes []string
}

// DataDefinition is a `data` block: an extra file or tree copied verbatim.
type DataDefinition struct {
	Source      string
	Destination string
}

// LauncherDefinition controls the generated launcher scripts.
type LauncherDefinition struct {
	Enabled bool
	// ExtraPath lists bundle-relative directories added to the loader
	// search path on top of the library directories.
	ExtraPath []string
}

// PublishDefinition is the optional `publish` block.
type PublishDefinition struct {
	Endpoint string
	Bucket   string
	Prefix   string
	Region   string
	UseSSL   bool
}

// Path resolves p against the manifest directory.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Settings returns the global bundle settings.
func (m *Manifest) Settings() model.BundleSettings {
	return model.BundleSettings{
		Name:          m.Name,
		Mode:          m.OutputMode,
		AttachConsole: m.AttachConsole,
		EntryPoint:    filepath.Base(m.EntryPoint),
	}
}

// HostLibrary builds the resolved host library for a library block.
func (m *Manifest) HostLibrary(def *LibraryDefinition) *model.HostLibrary {
	lib := &model.HostLibrary{
		Name:        def.Name,
		Root:        m.Path(def.Root),
		PrivateDirs: def.PrivateDirs,
		Suffixes:    def.BinarySuffixes,
	}
	if def.Binaries != nil {
		lib.Binaries = append([]string{}, def.Binaries...)
	}
	return lib
}

// ModuleSearchPaths returns the resolved module paths.
func (m *Manifest) ModuleSearchPaths() []string {
	out := make([]string, 0, len(m.ModulePaths))
	for _, p := range m.ModulePaths {
		out = append(out, m.Path(p))
	}
	return out
}
