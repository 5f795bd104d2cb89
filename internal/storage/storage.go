// Package storage decides and enforces how each artifact is stored inside a
// bundle.
//
// Binary libraries are always stored raw: their bytes in the bundle are
// identical to the source, never compressed, transformed or stripped. This
// is decided from the artifact kind alone; no per-file setting can override
// it. Other files are compressed unless they match a store_raw pattern.
package storage

import (
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar"
	"github.com/vk/portabundle/internal/model"
)

// StoragePolicyViolation reports an attempt to compress a raw artifact.
type StoragePolicyViolation struct {
	Destination string
	Kind        model.Kind
}

func (e *StoragePolicyViolation) Error() string {
	return fmt.Sprintf("storage policy violation: %s artifact %s must be stored raw", e.Kind, e.Destination)
}

// Policy classifies artifacts.
type Policy struct {
	rawPatterns []string
}

// NewPolicy validates the store_raw glob patterns.
func NewPolicy(rawPatterns []string) (*Policy, error) {
	for _, p := range rawPatterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid store_raw pattern %q: %w", p, err)
		}
		if _, err := doublestar.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("invalid store_raw pattern %q: %w", p, err)
		}
	}
	return &Policy{rawPatterns: append([]string(nil), rawPatterns...)}, nil
}

// Classify returns a with its storage policy set.
func (p *Policy) Classify(a model.Artifact) model.Artifact {
	if a.Kind == model.KindBinaryLibrary {
		a.Storage = model.StorageRaw
		return a
	}
	a.Storage = model.StorageCompress
	for _, pattern := range p.rawPatterns {
		if ok, _ := doublestar.Match(pattern, a.Destination); ok {
			a.Storage = model.StorageRaw
			break
		}
	}
	return a
}

// Guard rejects storage operations that would break the raw policy.
type Guard struct{}

// Check is called by the packer before writing a. compress tells whether the
// packer is about to compress it.
func (Guard) Check(a model.Artifact, compress bool) error {
	if !compress {
		return nil
	}
	if a.Kind == model.KindBinaryLibrary || a.Storage != model.StorageCompress {
		return &StoragePolicyViolation{Destination: a.Destination, Kind: a.Kind}
	}
	return nil
}

// Verify checks that every binary library in m is classified raw.
func (Guard) Verify(m *model.BundleManifest) error {
	for _, a := range m.Artifacts() {
		if a.Kind == model.KindBinaryLibrary && a.Storage != model.StorageRaw {
			return &StoragePolicyViolation{Destination: a.Destination, Kind: a.Kind}
		}
		if a.Storage == model.StorageUnclassified {
			return fmt.Errorf("artifact %s has no storage policy", a.Destination)
		}
	}
	return nil
}
