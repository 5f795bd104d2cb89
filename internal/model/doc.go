// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model defines the in-memory representation of a bundle build: the
// host libraries that provide native binaries, the artifacts that end up in
// the output, the resolved inclusion set and the final bundle manifest.
//
// # Core Concepts
//
//   - HostLibrary: a named dependency with a root directory on the build
//     machine. It may declare its own binaries; when it does not, the
//     collector falls back to scanning its private library directories.
//
//   - Artifact: one physical file slated for the bundle, identified by its
//     destination path. Artifacts carry their kind and storage policy.
//
//   - InclusionSet: the resolved module and library names that must be
//     loadable at runtime.
//
//   - BundleManifest: the frozen, ordered plan consumed by the packer.
//
// Types in this package hold no behavior beyond small accessors. Resolution,
// collection, layout and storage decisions live in their own packages and
// communicate through these structures.
package model
