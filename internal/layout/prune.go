package layout

import (
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar"
)

// Pruner drops files matching any of its glob patterns (`**` spans
// directories) from the bundle.
type Pruner struct {
	patterns []string
}

// NewPruner validates patterns.
func NewPruner(patterns []string) (*Pruner, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid prune pattern %q: %w", p, err)
		}
		if _, err := doublestar.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("invalid prune pattern %q: %w", p, err)
		}
	}
	return &Pruner{patterns: patterns}, nil
}

// Pruned reports whether the bundle destination dest is excluded.
func (p *Pruner) Pruned(dest string) bool {
	if p == nil {
		return false
	}
	for _, pattern := range p.patterns {
		if ok, _ := doublestar.Match(pattern, dest); ok {
			return true
		}
	}
	return false
}
