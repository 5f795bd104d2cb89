package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/portabundle/internal/model"
)

// Defaults applied by Assemble.
var (
	DefaultOutputDir      = "dist"
	DefaultModuleSuffixes = []string{".py"}
	DefaultPrivateDirs    = []string{"lib", "libs", ".libs"}
	DefaultBinarySuffixes = []string{".so", ".dylib", ".dll", ".pyd"}
)

// Fragment is what a format loader decodes from a single file. Scalars are
// pointers so that merging can tell "unset" from "set to the zero value".
type Fragment struct {
	// Source is the file the fragment was decoded from.
	Source string

	Name          *string
	EntryPoint    *string
	OutputMode    *string
	OutputDir     *string
	AttachConsole *bool

	ExplicitModules   []string
	ExplicitLibraries []string
	ExcludedPatterns  []string
	ModulePaths       []string
	ModuleSuffixes    []string
	Prune             []string
	StoreRaw          []string

	Libraries []LibraryDefinition
	Data      []DataDefinition
	Launcher  *LauncherFragment
	Publish   *PublishDefinition
}

// LauncherFragment is the decoded `launcher` block.
type LauncherFragment struct {
	Enabled   *bool
	ExtraPath []string
}

type scalar[T comparable] struct {
	name   string
	value  T
	source string
	set    bool
}

func (s *scalar[T]) merge(v *T, source string) error {
	if v == nil {
		return nil
	}
	if s.set && s.value != *v {
		return fmt.Errorf("%s set to conflicting values in %s and %s", s.name, s.source, source)
	}
	s.value, s.source, s.set = *v, source, true
	return nil
}

// Assemble merges fragments in order, applies defaults and validates. dir is
// the directory relative paths resolve against.
func Assemble(dir string, fragments ...*Fragment) (*Manifest, error) {
	var (
		name       = scalar[string]{name: "name"}
		entry      = scalar[string]{name: "entry_point"}
		mode       = scalar[string]{name: "output_mode"}
		outDir     = scalar[string]{name: "output_dir"}
		console    = scalar[bool]{name: "attach_console"}
		launcherOn = scalar[bool]{name: "launcher.enabled"}
	)

	m := &Manifest{
		Dir:       dir,
		Libraries: make(map[string]*LibraryDefinition),
	}

	for _, f := range fragments {
		for _, err := range []error{
			name.merge(f.Name, f.Source),
			entry.merge(f.EntryPoint, f.Source),
			mode.merge(f.OutputMode, f.Source),
			outDir.merge(f.OutputDir, f.Source),
			console.merge(f.AttachConsole, f.Source),
		} {
			if err != nil {
				return nil, err
			}
		}

		m.ExplicitModules = union(m.ExplicitModules, f.ExplicitModules)
		m.ExplicitLibraries = union(m.ExplicitLibraries, f.ExplicitLibraries)
		m.ExcludedPatterns = union(m.ExcludedPatterns, f.ExcludedPatterns)
		m.ModulePaths = union(m.ModulePaths, f.ModulePaths)
		m.ModuleSuffixes = union(m.ModuleSuffixes, f.ModuleSuffixes)
		m.Prune = union(m.Prune, f.Prune)
		m.StoreRaw = union(m.StoreRaw, f.StoreRaw)
		m.Data = append(m.Data, f.Data...)

		for i := range f.Libraries {
			def := f.Libraries[i]
			if _, dup := m.Libraries[def.Name]; dup {
				return nil, fmt.Errorf("library %q declared more than once (again in %s)", def.Name, f.Source)
			}
			m.Libraries[def.Name] = &def
		}

		if f.Launcher != nil {
			if err := launcherOn.merge(f.Launcher.Enabled, f.Source); err != nil {
				return nil, err
			}
			m.Launcher.ExtraPath = union(m.Launcher.ExtraPath, f.Launcher.ExtraPath)
		}
		if f.Publish != nil {
			if m.Publish != nil {
				return nil, fmt.Errorf("publish block declared more than once (again in %s)", f.Source)
			}
			p := *f.Publish
			m.Publish = &p
		}
	}

	m.Name = name.value
	m.EntryPoint = entry.value
	m.OutputDir = outDir.value
	m.AttachConsole = console.value
	m.Launcher.Enabled = !launcherOn.set || launcherOn.value

	outputMode, err := model.ParseOutputMode(mode.value)
	if err != nil {
		return nil, err
	}
	m.OutputMode = outputMode

	applyDefaults(m)
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func applyDefaults(m *Manifest) {
	if m.Name == "" && m.EntryPoint != "" {
		base := filepath.Base(m.EntryPoint)
		m.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if m.OutputDir == "" {
		m.OutputDir = DefaultOutputDir
	}
	if len(m.ModulePaths) == 0 {
		m.ModulePaths = []string{"."}
	}
	if len(m.ModuleSuffixes) == 0 {
		m.ModuleSuffixes = append([]string{}, DefaultModuleSuffixes...)
	}
	for _, lib := range m.Libraries {
		if len(lib.PrivateDirs) == 0 {
			lib.PrivateDirs = append([]string{}, DefaultPrivateDirs...)
		}
		if len(lib.BinarySuffixes) == 0 {
			lib.BinarySuffixes = append([]string{}, DefaultBinarySuffixes...)
		}
	}
	if m.Publish != nil && m.Publish.Region == "" {
		m.Publish.Region = "us-east-1"
	}
}

// Validate checks the structural rules every manifest must satisfy.
func Validate(m *Manifest) error {
	if strings.TrimSpace(m.EntryPoint) == "" {
		return fmt.Errorf("manifest missing entry_point")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("manifest missing name")
	}
	if m.Name == "." || m.Name == ".." || strings.ContainsAny(m.Name, `/\`) || filepath.Base(m.Name) != m.Name {
		return fmt.Errorf("bundle name %q must be a single file name", m.Name)
	}
	names := make([]string, 0, len(m.Libraries))
	for n := range m.Libraries {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		lib := m.Libraries[n]
		if strings.TrimSpace(lib.Name) == "" {
			return fmt.Errorf("library block missing name")
		}
		if strings.TrimSpace(lib.Root) == "" {
			return fmt.Errorf("library %q missing root", lib.Name)
		}
	}
	for i, d := range m.Data {
		if strings.TrimSpace(d.Source) == "" {
			return fmt.Errorf("data[%d] missing source", i)
		}
		if strings.HasPrefix(filepath.ToSlash(filepath.Clean(d.Destination)), "../") {
			return fmt.Errorf("data[%d] destination %q escapes the bundle", i, d.Destination)
		}
	}
	if p := m.Publish; p != nil {
		if strings.TrimSpace(p.Endpoint) == "" {
			return fmt.Errorf("publish block missing endpoint")
		}
		if strings.TrimSpace(p.Bucket) == "" {
			return fmt.Errorf("publish block missing bucket")
		}
	}
	return nil
}

// union appends the values of add missing from base, keeping first-seen order.
func union(base, add []string) []string {
	if len(add) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(add))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	for _, v := range add {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		base = append(base, v)
	}
	return base
}
