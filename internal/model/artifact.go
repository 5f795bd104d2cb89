// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import "fmt"

// Kind classifies an artifact by the role it plays at runtime.
type Kind int

const (
	KindData Kind = iota
	KindBinaryLibrary
	KindEntry
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindBinaryLibrary:
		return "binary-library"
	case KindEntry:
		return "entry"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText lets reports encode kinds by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindData, KindBinaryLibrary, KindEntry} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown artifact kind %q", text)
}

// Storage is the packing policy assigned to an artifact.
type Storage int

const (
	// StorageUnclassified marks an artifact the storage guard has not seen yet.
	StorageUnclassified Storage = iota
	// StorageCompress allows the artifact through the compression pass.
	StorageCompress
	// StorageRaw requires the artifact to be stored byte-identical.
	StorageRaw
)

func (s Storage) String() string {
	switch s {
	case StorageUnclassified:
		return "unclassified"
	case StorageCompress:
		return "compress"
	case StorageRaw:
		return "raw"
	default:
		return fmt.Sprintf("storage(%d)", int(s))
	}
}

// MarshalText lets reports encode storage policies by name.
func (s Storage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Storage) UnmarshalText(text []byte) error {
	for _, c := range []Storage{StorageUnclassified, StorageCompress, StorageRaw} {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown storage policy %q", text)
}

// Artifact is one physical file that must end up in the bundle.
//
// Source is the path on the build machine. Generated files (launchers, the
// bundle README) have no source path and carry their bytes in Content.
// Destination is a slash-separated path relative to the bundle root and is
// the artifact's identity.
type Artifact struct {
	Source      string
	Content     []byte
	Destination string
	Kind        Kind
	Storage     Storage
	// Owner is the library or module the artifact was collected for.
	Owner  string
	Size   int64
	Digest string
	Mode   uint32
}

// Synthetic reports whether the artifact is generated in memory.
func (a Artifact) Synthetic() bool {
	return a.Source == "" && a.Content != nil
}

// Raw reports whether the artifact must be stored byte-identical.
func (a Artifact) Raw() bool {
	return a.Storage == StorageRaw
}

// Origin names where the artifact comes from, for reports and errors.
func (a Artifact) Origin() string {
	if a.Synthetic() {
		return "<generated>"
	}
	return a.Source
}
