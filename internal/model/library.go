// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import "strings"

// Library is the capability every host library exposes to the collector.
type Library interface {
	LibraryName() string
	RootPath() string
}

// BinaryDeclarer is the optional capability of a library that knows its own
// dynamic libraries. Paths are relative to RootPath.
type BinaryDeclarer interface {
	DeclaredBinaries() []string
}

// HostLibrary is a named dependency providing native binaries.
type HostLibrary struct {
	Name string
	Root string
	// Binaries is the declared list of binaries. Nil means the library does
	// not declare any and must be scanned.
	Binaries []string
	// PrivateDirs are directories under Root scanned for binaries that
	// nothing references by name.
	PrivateDirs []string
	// Suffixes are the file name suffixes recognised as binary libraries.
	Suffixes []string
}

func (l *HostLibrary) LibraryName() string { return l.Name }

func (l *HostLibrary) RootPath() string { return l.Root }

// Declares reports whether the library carries a declared binary list.
func (l *HostLibrary) Declares() bool { return l.Binaries != nil }

// DeclaringLibrary wraps a HostLibrary that exposes its declared binaries.
type DeclaringLibrary struct {
	*HostLibrary
}

func (l DeclaringLibrary) DeclaredBinaries() []string {
	out := make([]string, len(l.Binaries))
	copy(out, l.Binaries)
	return out
}

// AsLibrary returns the capability view of l: libraries with a declared list
// also implement BinaryDeclarer, the rest expose only the root.
func AsLibrary(l *HostLibrary) Library {
	if l.Declares() {
		return DeclaringLibrary{HostLibrary: l}
	}
	return l
}

// CanonicalName normalizes a library name into the directory name used
// inside the bundle.
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "_", " ", "_").Replace(name)
}
