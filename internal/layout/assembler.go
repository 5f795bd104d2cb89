package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/portabundle/internal/digest"
	"github.com/vk/portabundle/internal/fsutil"
	"github.com/vk/portabundle/internal/model"
)

// Classifier assigns the storage policy of an artifact.
type Classifier interface {
	Classify(a model.Artifact) model.Artifact
}

// Assembler turns source files into placed artifacts and freezes the final
// bundle manifest.
type Assembler struct {
	Digests *digest.Cache
}

// NewAssembler creates an assembler sharing the given digest cache.
func NewAssembler(digests *digest.Cache) *Assembler {
	return &Assembler{Digests: digests}
}

// File describes a source file as an artifact placed at dest.
func (a *Assembler) File(source, dest string, kind model.Kind, owner string) (model.Artifact, error) {
	e, err := a.Digests.File(source)
	if err != nil {
		return model.Artifact{}, err
	}
	return model.Artifact{
		Source:      source,
		Destination: dest,
		Kind:        kind,
		Owner:       owner,
		Size:        e.Size,
		Digest:      e.Digest,
		Mode:        uint32(e.Mode),
	}, nil
}

// Entry places the entry executable at the bundle root.
func (a *Assembler) Entry(source string) (model.Artifact, error) {
	art, err := a.File(source, EntryDestination(source), model.KindEntry, "entry")
	if err != nil {
		return model.Artifact{}, fmt.Errorf("entry point: %w", err)
	}
	return art, nil
}

// Tree places every file under source at prefix, keeping relative paths.
// A single file is placed at prefix/<base name>, or at its base name when
// prefix is empty.
func (a *Assembler) Tree(source, prefix string, kind model.Kind, owner string) ([]model.Artifact, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	var files []string
	root := source
	if info.IsDir() {
		files, err = fsutil.FindFiles(source, func(string) bool { return true })
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{source}
		root = filepath.Dir(source)
	}
	out := make([]model.Artifact, 0, len(files))
	for _, f := range files {
		dest, err := RelativeDestination(prefix, root, f)
		if err != nil {
			return nil, err
		}
		art, err := a.File(f, dest, kind, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, art)
	}
	return out, nil
}

// Generated places in-memory content.
func Generated(dest string, content []byte, kind model.Kind, mode uint32) model.Artifact {
	return model.Artifact{
		Content:     content,
		Destination: dest,
		Kind:        kind,
		Owner:       "generated",
		Size:        int64(len(content)),
		Digest:      digest.Bytes(content),
		Mode:        mode,
	}
}

// Assemble validates the populated index and freezes it into a manifest.
// Recorded collisions are fatal; the first one is returned.
func Assemble(settings model.BundleSettings, idx *Index, classifier Classifier) (*model.BundleManifest, error) {
	if collisions := idx.Collisions(); len(collisions) > 0 {
		return nil, collisions[0]
	}
	entry, ok := idx.Get(settings.EntryPoint)
	if !ok || entry.Kind != model.KindEntry {
		return nil, fmt.Errorf("entry point %s missing from bundle root", settings.EntryPoint)
	}

	artifacts := idx.Artifacts()
	for i := range artifacts {
		artifacts[i] = classifier.Classify(artifacts[i])
	}
	return model.NewBundleManifest(settings, artifacts), nil
}
