package hcl

import (
	"github.com/vk/portabundle/internal/config"
	"github.com/vk/portabundle/internal/schema"
)

// translate converts the HCL-specific schema into the agnostic fragment.
func translate(source string, s *schema.Manifest) *config.Fragment {
	f := &config.Fragment{
		Source:            source,
		Name:              s.Name,
		EntryPoint:        s.EntryPoint,
		OutputMode:        s.OutputMode,
		OutputDir:         s.OutputDir,
		AttachConsole:     s.AttachConsole,
		ExplicitModules:   s.ExplicitModules,
		ExplicitLibraries: s.ExplicitLibraries,
		ExcludedPatterns:  s.ExcludedPatterns,
		ModulePaths:       s.ModulePaths,
		ModuleSuffixes:    s.ModuleSuffixes,
		Prune:             s.Prune,
		StoreRaw:          s.StoreRaw,
	}

	for _, lib := range s.Libraries {
		def := config.LibraryDefinition{
			Name:           lib.Name,
			Root:           lib.Root,
			PrivateDirs:    lib.PrivateDirs,
			BinarySuffixes: lib.BinarySuffixes,
		}
		if lib.Binaries != nil {
			// An explicit empty list still counts as a declaration.
			def.Binaries = append([]string{}, (*lib.Binaries)...)
		}
		f.Libraries = append(f.Libraries, def)
	}
	for _, d := range s.Data {
		f.Data = append(f.Data, config.DataDefinition{Source: d.Source, Destination: d.Destination})
	}
	if s.Launcher != nil {
		f.Launcher = &config.LauncherFragment{Enabled: s.Launcher.Enabled, ExtraPath: s.Launcher.ExtraPath}
	}
	if p := s.Publish; p != nil {
		f.Publish = &config.PublishDefinition{
			Endpoint: p.Endpoint,
			Bucket:   p.Bucket,
			Prefix:   p.Prefix,
			Region:   p.Region,
			UseSSL:   p.UseSSL == nil || *p.UseSSL,
		}
	}
	return f
}
