package config

import "context"

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads a manifest file, or every manifest file in a directory, and
	// returns the assembled, validated manifest.
	Load(ctx context.Context, path string) (*Manifest, error)
}
