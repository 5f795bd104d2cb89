// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"
	"sort"
)

// OutputMode selects how the bundle is written.
type OutputMode string

const (
	// OutputSingleFile writes one archive holding the whole bundle.
	OutputSingleFile OutputMode = "single-file"
	// OutputDirectory writes an expanded directory tree.
	OutputDirectory OutputMode = "directory"
)

// ParseOutputMode validates a manifest value.
func ParseOutputMode(raw string) (OutputMode, error) {
	switch OutputMode(raw) {
	case OutputSingleFile, OutputDirectory:
		return OutputMode(raw), nil
	case "":
		return OutputDirectory, nil
	default:
		return "", fmt.Errorf("unknown output mode %q: must be %q or %q", raw, OutputSingleFile, OutputDirectory)
	}
}

// BundleSettings are the global settings of a build.
type BundleSettings struct {
	Name          string
	Mode          OutputMode
	AttachConsole bool
	// EntryPoint is the bundle-relative destination of the entry executable.
	EntryPoint string
}

// BundleManifest is the final plan mapping every artifact to its bundle
// destination and storage policy. It is built once per build and must not be
// mutated afterwards.
type BundleManifest struct {
	Settings  BundleSettings
	artifacts []Artifact
}

// NewBundleManifest freezes artifacts into a manifest ordered by destination.
func NewBundleManifest(settings BundleSettings, artifacts []Artifact) *BundleManifest {
	frozen := make([]Artifact, len(artifacts))
	copy(frozen, artifacts)
	sort.Slice(frozen, func(i, j int) bool { return frozen[i].Destination < frozen[j].Destination })
	return &BundleManifest{Settings: settings, artifacts: frozen}
}

// Artifacts returns a copy of the ordered artifact list.
func (m *BundleManifest) Artifacts() []Artifact {
	out := make([]Artifact, len(m.artifacts))
	copy(out, m.artifacts)
	return out
}

// Len returns the number of artifacts.
func (m *BundleManifest) Len() int { return len(m.artifacts) }

// Lookup finds an artifact by destination.
func (m *BundleManifest) Lookup(dest string) (Artifact, bool) {
	i := sort.Search(len(m.artifacts), func(i int) bool { return m.artifacts[i].Destination >= dest })
	if i < len(m.artifacts) && m.artifacts[i].Destination == dest {
		return m.artifacts[i], true
	}
	return Artifact{}, false
}
