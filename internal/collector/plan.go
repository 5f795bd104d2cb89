package collector

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/portabundle/internal/fsutil"
	"github.com/vk/portabundle/internal/model"
)

// Source is one place binaries of a library are taken from.
type Source interface {
	fmt.Stringer
	source()
}

// Declared lists binaries the library names itself, relative to its root.
type Declared struct {
	Paths []string
}

func (Declared) source() {}

func (d Declared) String() string {
	return fmt.Sprintf("declared(%d)", len(d.Paths))
}

// ScannedFallback is a private library directory searched by extension.
type ScannedFallback struct {
	Dir      string
	Suffixes []string
}

func (ScannedFallback) source() {}

func (s ScannedFallback) String() string {
	return "scan(" + s.Dir + ")"
}

// Plan lists the sources for lib. An absent private directory is skipped;
// a library with no source at all yields an empty plan.
func Plan(lib *model.HostLibrary) ([]Source, error) {
	if !fsutil.IsDir(lib.Root) {
		return nil, fmt.Errorf("library root %s is not a directory", lib.Root)
	}

	var sources []Source
	if d, ok := model.AsLibrary(lib).(model.BinaryDeclarer); ok {
		sources = append(sources, Declared{Paths: d.DeclaredBinaries()})
	}
	for _, dir := range lib.PrivateDirs {
		abs := filepath.Join(lib.Root, filepath.FromSlash(dir))
		if fsutil.IsDir(abs) {
			sources = append(sources, ScannedFallback{Dir: abs, Suffixes: lib.Suffixes})
		}
	}
	return sources, nil
}

// isBinary matches name against suffixes, accepting versioned shared
// objects such as libfoo.so.1.2.
func isBinary(name string, suffixes []string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		s = strings.ToLower(s)
		if strings.HasSuffix(lower, s) {
			return true
		}
		i := strings.LastIndex(lower, s+".")
		if i <= 0 {
			continue
		}
		if version := lower[i+len(s)+1:]; version != "" && strings.Trim(version, "0123456789.") == "" {
			return true
		}
	}
	return false
}
