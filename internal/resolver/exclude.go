package resolver

import (
	"path"
	"strings"
)

// Exclusions is a compiled list of module-name exclusion patterns.
type Exclusions struct {
	patterns []string
	used     map[string]bool
}

// NewExclusions compiles patterns. Malformed glob patterns are returned so
// the caller can warn; they still match literally.
func NewExclusions(patterns []string) (*Exclusions, []string) {
	var bad []string
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			bad = append(bad, p)
		}
	}
	return &Exclusions{patterns: patterns, used: make(map[string]bool)}, bad
}

// Match returns the first pattern excluding name. A pattern excludes a name
// when it equals or glob-matches the name or any of its dotted ancestors, so
// excluding a package excludes everything nested under it.
func (x *Exclusions) Match(name string) (string, bool) {
	first, found := "", false
	for _, p := range x.patterns {
		if !matchesName(p, name) {
			continue
		}
		x.used[p] = true
		if !found {
			first, found = p, true
		}
	}
	return first, found
}

// Unused returns the patterns that never matched, in declaration order.
func (x *Exclusions) Unused() []string {
	var out []string
	for _, p := range x.patterns {
		if !x.used[p] {
			out = append(out, p)
		}
	}
	return out
}

func matchesName(pattern, name string) bool {
	for anc := name; ; {
		if anc == pattern {
			return true
		}
		if ok, err := path.Match(pattern, anc); err == nil && ok {
			return true
		}
		i := strings.LastIndexByte(anc, '.')
		if i < 0 {
			return false
		}
		anc = anc[:i]
	}
}
