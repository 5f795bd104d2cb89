// Package pack writes a frozen bundle manifest to disk, either as a plain
// directory or as a single zip archive.
//
// Output is first written into a staging directory under the output
// directory. The staging directory holds an INCOMPLETE marker for as long as
// it exists; only Commit moves the finished bundle to its final name.
package pack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/portabundle/internal/model"
	"github.com/vk/portabundle/internal/storage"
)

// IncompleteMarker is present in every staging directory.
const IncompleteMarker = "INCOMPLETE"

// DefaultCompressionLevel is the deflate level used for compressed entries.
const DefaultCompressionLevel = 5

// Packer writes bundles below OutputDir.
type Packer struct {
	OutputDir string
	Guard     storage.Guard
	// Level is the deflate level for single-file bundles.
	Level int
	// Modified is stamped on archive entries.
	Modified time.Time
}

// New creates a packer writing below outputDir.
func New(outputDir string) *Packer {
	return &Packer{OutputDir: outputDir, Level: DefaultCompressionLevel}
}

// Staged is a written but not yet published bundle.
type Staged struct {
	dir       string
	item      string
	final     string
	outputDir string
	done      bool
}

// FinalPath returns where Commit will place the bundle.
func FinalPath(outputDir string, settings model.BundleSettings) string {
	if settings.Mode == model.OutputSingleFile {
		return filepath.Join(outputDir, settings.Name+".zip")
	}
	return filepath.Join(outputDir, settings.Name)
}

// Stage writes m into a fresh staging directory. On error the staging
// directory is removed.
func (p *Packer) Stage(ctx context.Context, m *model.BundleManifest, buildID string) (*Staged, error) {
	if _, clash := m.Lookup(IncompleteMarker); clash {
		return nil, fmt.Errorf("artifact destination %s is reserved", IncompleteMarker)
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	dir, err := os.MkdirTemp(p.OutputDir, ".staging-"+buildID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IncompleteMarker), []byte(buildID+"\n"), 0o644); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	final := FinalPath(p.OutputDir, m.Settings)
	if !within(p.OutputDir, final) {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("bundle path %s is not inside output directory %s", final, p.OutputDir)
	}
	s := &Staged{dir: dir, item: filepath.Join(dir, filepath.Base(final)), final: final, outputDir: p.OutputDir}
	if m.Settings.Mode == model.OutputSingleFile {
		err = p.writeArchive(ctx, m, s.item)
	} else {
		err = p.writeDirectory(ctx, m, s.item)
	}
	if err != nil {
		s.Discard()
		return nil, err
	}
	return s, nil
}

// Path returns the staged bundle location.
func (s *Staged) Path() string { return s.item }

// Commit replaces any previous bundle at the final path with the staged one.
func (s *Staged) Commit() (string, error) {
	if s.done {
		return "", fmt.Errorf("staged bundle already committed or discarded")
	}
	if !within(s.outputDir, s.final) {
		return "", fmt.Errorf("refusing to replace %s: not inside output directory %s", s.final, s.outputDir)
	}
	if err := os.RemoveAll(s.final); err != nil {
		return "", fmt.Errorf("failed to remove previous bundle: %w", err)
	}
	if err := os.Rename(s.item, s.final); err != nil {
		return "", fmt.Errorf("failed to move bundle into place: %w", err)
	}
	s.done = true
	if err := os.RemoveAll(s.dir); err != nil {
		return s.final, fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return s.final, nil
}

// Discard removes the staging directory. It is safe to call after Commit.
func (s *Staged) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	return os.RemoveAll(s.dir)
}

func (p *Packer) writeDirectory(ctx context.Context, m *model.BundleManifest, root string) error {
	if err := os.Mkdir(root, 0o755); err != nil {
		return err
	}
	for _, a := range m.Artifacts() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Guard.Check(a, false); err != nil {
			return err
		}
		dst := filepath.Join(root, filepath.FromSlash(a.Destination))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := writeFile(dst, a); err != nil {
			return fmt.Errorf("writing %s: %w", a.Destination, err)
		}
	}
	return nil
}

func writeFile(dst string, a model.Artifact) error {
	src, err := open(a)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode(a))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func open(a model.Artifact) (io.ReadCloser, error) {
	if a.Synthetic() {
		return io.NopCloser(bytes.NewReader(a.Content)), nil
	}
	return os.Open(a.Source)
}

func fileMode(a model.Artifact) fs.FileMode {
	if a.Mode == 0 {
		return 0o644
	}
	return fs.FileMode(a.Mode).Perm()
}

// within reports whether p lies strictly below dir.
func within(dir, p string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absP)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
