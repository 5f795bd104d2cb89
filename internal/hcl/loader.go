package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/portabundle/internal/config"
	"github.com/vk/portabundle/internal/ctxlog"
	"github.com/vk/portabundle/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the values exposed as `env.*`. Nil means os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses one manifest file, or every .hcl file in a directory, and
// assembles them into a single manifest.
func (l *Loader) Load(ctx context.Context, path string) (*config.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, dir, err := findManifestFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl manifest found at %s", path)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	evalCtx, err := l.evalContext(dir)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	fragments := make([]*config.Fragment, 0, len(files))
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.Manifest
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		fragments = append(fragments, translate(file, &root))
	}

	m, err := config.Assemble(dir, fragments...)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	logger.Debug("HCL loading complete.",
		"name", m.Name,
		"modules", len(m.ExplicitModules),
		"libraries", len(m.Libraries),
		"exclusions", len(m.ExcludedPatterns),
	)
	return m, nil
}

// findManifestFiles returns the .hcl files at path, sorted, together with the
// directory relative manifest paths resolve against.
func findManifestFiles(path string) ([]string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("error resolving path %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, "", fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{abs}, filepath.Dir(abs), nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, "", fmt.Errorf("error reading directory %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".hcl" {
			files = append(files, filepath.Join(abs, e.Name()))
		}
	}
	sort.Strings(files)
	return files, abs, nil
}
