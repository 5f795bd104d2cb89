// Package resolver turns the requested modules, libraries and exclusion
// patterns of a manifest into the InclusionSet.
//
// Requested modules are expanded into every nested submodule a ModuleFinder
// can discover. Exclusion patterns are then applied as a final filter and
// always win: a name that is both requested and excluded is dropped with a
// warning. A requested name that cannot be located at all is a hard
// UnresolvedModuleError, while an exclusion that matches nothing only warns.
package resolver
