// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import "sort"

// InclusionSet is the resolved set of module and library names that must be
// importable or loadable at runtime.
type InclusionSet struct {
	Modules   map[string]struct{}
	Libraries map[string]*HostLibrary
}

// NewInclusionSet returns an empty set.
func NewInclusionSet() *InclusionSet {
	return &InclusionSet{
		Modules:   make(map[string]struct{}),
		Libraries: make(map[string]*HostLibrary),
	}
}

// HasModule reports whether name is included.
func (s *InclusionSet) HasModule(name string) bool {
	_, ok := s.Modules[name]
	return ok
}

// ModuleNames returns the included module names in sorted order.
func (s *InclusionSet) ModuleNames() []string {
	names := make([]string, 0, len(s.Modules))
	for n := range s.Modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LibraryList returns the included libraries sorted by name.
func (s *InclusionSet) LibraryList() []*HostLibrary {
	libs := make([]*HostLibrary, 0, len(s.Libraries))
	for _, l := range s.Libraries {
		libs = append(libs, l)
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].Name < libs[j].Name })
	return libs
}
