// Package schema holds the HCL-specific shape of a build manifest. The
// structs are decoded with gohcl and then translated into the
// format-agnostic config.Fragment.
package schema

// Manifest represents the top-level structure of a manifest file.
type Manifest struct {
	Name          *string `hcl:"name,optional"`
	EntryPoint    *string `hcl:"entry_point,optional"`
	OutputMode    *string `hcl:"output_mode,optional"`
	OutputDir     *string `hcl:"output_dir,optional"`
	AttachConsole *bool   `hcl:"attach_console,optional"`

	ExplicitModules   []string `hcl:"explicit_modules,optional"`
	ExplicitLibraries []string `hcl:"explicit_libraries,optional"`
	ExcludedPatterns  []string `hcl:"excluded_patterns,optional"`
	ModulePaths       []string `hcl:"module_paths,optional"`
	ModuleSuffixes    []string `hcl:"module_suffixes,optional"`
	Prune             []string `hcl:"prune,optional"`
	StoreRaw          []string `hcl:"store_raw,optional"`

	Libraries []*Library `hcl:"library,block"`
	Data      []*Data    `hcl:"data,block"`
	Launcher  *Launcher  `hcl:"launcher,block"`
	Publish   *Publish   `hcl:"publish,block"`
}

// Library is a `library "name" { ... }` block describing a host library.
type Library struct {
	Name           string    `hcl:"name,label"`
	Root           string    `hcl:"root"`
	Binaries       *[]string `hcl:"binaries,optional"`
	PrivateDirs    []string  `hcl:"private_dirs,optional"`
	BinarySuffixes []string  `hcl:"binary_suffixes,optional"`
}

// Data is a `data { ... }` block copying extra files into the bundle.
type Data struct {
	Source      string `hcl:"source"`
	Destination string `hcl:"destination,optional"`
}

// Launcher configures the generated launcher scripts.
type Launcher struct {
	Enabled   *bool    `hcl:"enabled,optional"`
	ExtraPath []string `hcl:"extra_path,optional"`
}

// Publish configures the optional upload of a finished bundle.
type Publish struct {
	Endpoint string `hcl:"endpoint"`
	Bucket   string `hcl:"bucket"`
	Prefix   string `hcl:"prefix,optional"`
	Region   string `hcl:"region,optional"`
	UseSSL   *bool  `hcl:"use_ssl,optional"`
}
