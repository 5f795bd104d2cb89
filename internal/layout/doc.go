// Package layout decides where every artifact lives inside the bundle.
//
// The entry executable sits at the bundle root. Binaries of a host library
// go under a directory named after the library's canonical name and keep
// their path relative to the library root, so that loaders expecting a
// particular sibling layout still find what they look for. Module files keep
// their path relative to the module search path.
//
// The Index is the destination-path table every collected artifact passes
// through. It suppresses exact duplicates and records collisions, which
// Assemble turns into an ArtifactCollisionError.
package layout
