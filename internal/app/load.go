package app

import (
	"path/filepath"
	"strings"

	"github.com/vk/portabundle/internal/config"
	"github.com/vk/portabundle/internal/hcl"
	"github.com/vk/portabundle/internal/tomlconf"
)

// LoaderFor picks the manifest loader by file extension. Directories and
// every other extension are read as HCL.
func LoaderFor(path string) config.Loader {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return tomlconf.NewLoader()
	}
	return hcl.NewLoader()
}
