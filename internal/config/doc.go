// Package config defines the format-agnostic build manifest, along with the
// Loader interface for reading it from various sources.
//
// The `config.Manifest` is the single source of truth for the resolver,
// collector and packer. Concrete loaders, such as for HCL and TOML, live in
// separate packages and decode files into Fragments; Assemble merges them,
// applies defaults and validates the result.
package config
