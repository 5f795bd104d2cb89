// Package collector gathers the compiled binaries of host libraries.
//
// A library that declares its binaries is collected from that list. The
// library's private directories are always scanned as well, by file
// extension, so binaries missing from a declaration are still picked up.
// A library that declares nothing relies on the scan alone.
//
// Libraries are collected in parallel. A failure in one library never
// aborts the others: it is reported to the Sink as a
// LibraryCollectionWarning and the build goes on.
package collector
