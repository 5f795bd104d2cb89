// Package tomlconf loads build manifests written in TOML. It mirrors the HCL
// loader field for field so both formats assemble into the same
// config.Manifest.
package tomlconf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vk/portabundle/internal/config"
	"github.com/vk/portabundle/internal/ctxlog"
)

type document struct {
	Name          *string `toml:"name"`
	EntryPoint    *string `toml:"entry_point"`
	OutputMode    *string `toml:"output_mode"`
	OutputDir     *string `toml:"output_dir"`
	AttachConsole *bool   `toml:"attach_console"`

	ExplicitModules   []string `toml:"explicit_modules"`
	ExplicitLibraries []string `toml:"explicit_libraries"`
	ExcludedPatterns  []string `toml:"excluded_patterns"`
	ModulePaths       []string `toml:"module_paths"`
	ModuleSuffixes    []string `toml:"module_suffixes"`
	Prune             []string `toml:"prune"`
	StoreRaw          []string `toml:"store_raw"`

	Libraries []library      `toml:"library"`
	Data      []data         `toml:"data"`
	Launcher  *launcherTable `toml:"launcher"`
	Publish   *publishTable  `toml:"publish"`
}

type library struct {
	Name           string    `toml:"name"`
	Root           string    `toml:"root"`
	Binaries       *[]string `toml:"binaries"`
	PrivateDirs    []string  `toml:"private_dirs"`
	BinarySuffixes []string  `toml:"binary_suffixes"`
}

type data struct {
	Source      string `toml:"source"`
	Destination string `toml:"destination"`
}

type launcherTable struct {
	Enabled   *bool    `toml:"enabled"`
	ExtraPath []string `toml:"extra_path"`
}

type publishTable struct {
	Endpoint string `toml:"endpoint"`
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	Region   string `toml:"region"`
	UseSSL   *bool  `toml:"use_ssl"`
}

// Loader reads a single TOML manifest.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(ctx context.Context, path string) (*config.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var doc document
	meta, err := toml.DecodeFile(abs, &doc)
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}

	m, err := config.Assemble(filepath.Dir(abs), doc.fragment(abs))
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	logger.Debug("TOML manifest loaded.", "path", abs, "name", m.Name, "libraries", len(m.Libraries))
	return m, nil
}

func (d *document) fragment(source string) *config.Fragment {
	f := &config.Fragment{
		Source:            source,
		Name:              d.Name,
		EntryPoint:        d.EntryPoint,
		OutputMode:        d.OutputMode,
		OutputDir:         d.OutputDir,
		AttachConsole:     d.AttachConsole,
		ExplicitModules:   d.ExplicitModules,
		ExplicitLibraries: d.ExplicitLibraries,
		ExcludedPatterns:  d.ExcludedPatterns,
		ModulePaths:       d.ModulePaths,
		ModuleSuffixes:    d.ModuleSuffixes,
		Prune:             d.Prune,
		StoreRaw:          d.StoreRaw,
	}
	for _, lib := range d.Libraries {
		def := config.LibraryDefinition{
			Name:           lib.Name,
			Root:           lib.Root,
			PrivateDirs:    lib.PrivateDirs,
			BinarySuffixes: lib.BinarySuffixes,
		}
		if lib.Binaries != nil {
			def.Binaries = append([]string{}, (*lib.Binaries)...)
		}
		f.Libraries = append(f.Libraries, def)
	}
	for _, dd := range d.Data {
		f.Data = append(f.Data, config.DataDefinition{Source: dd.Source, Destination: dd.Destination})
	}
	if d.Launcher != nil {
		f.Launcher = &config.LauncherFragment{Enabled: d.Launcher.Enabled, ExtraPath: d.Launcher.ExtraPath}
	}
	if p := d.Publish; p != nil {
		f.Publish = &config.PublishDefinition{
			Endpoint: p.Endpoint,
			Bucket:   p.Bucket,
			Prefix:   p.Prefix,
			Region:   p.Region,
			UseSSL:   p.UseSSL == nil || *p.UseSSL,
		}
	}
	return f
}
