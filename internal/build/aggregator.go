package build

import (
	"path"
	"sort"
	"sync"

	"github.com/vk/portabundle/internal/collector"
	"github.com/vk/portabundle/internal/layout"
	"github.com/vk/portabundle/internal/model"
	"github.com/vk/portabundle/internal/report"
)

// aggregator owns the shared build state. Every method takes the lock.
type aggregator struct {
	mu     sync.Mutex
	rep    *report.Builder
	idx    *layout.Index
	pruner *layout.Pruner
	pruned int
}

var _ collector.Sink = (*aggregator)(nil)

func newAggregator(rep *report.Builder, pruner *layout.Pruner) *aggregator {
	return &aggregator{rep: rep, idx: layout.NewIndex(), pruner: pruner}
}

func (a *aggregator) Collected(_ *model.HostLibrary, artifacts []model.Artifact) {
	a.add(artifacts...)
}

func (a *aggregator) Failed(_ *model.HostLibrary, w *collector.LibraryCollectionWarning) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rep.Skip(w.Library, w.Err)
}

// add places artifacts in the index. The entry point is never pruned.
func (a *aggregator) add(artifacts ...model.Artifact) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, art := range artifacts {
		if art.Kind != model.KindEntry && a.pruner.Pruned(art.Destination) {
			a.pruned++
			continue
		}
		a.idx.Add(art)
	}
}

// recordCollisions copies the index collisions into the report.
func (a *aggregator) recordCollisions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.idx.Collisions() {
		a.rep.Collide(report.Collision{Destination: c.Destination, SourceA: c.SourceA, SourceB: c.SourceB})
	}
}

func (a *aggregator) warn(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rep.Warn(format, args...)
}

// libraryDirs lists the bundle directories holding binaries.
func (a *aggregator) libraryDirs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	seen := make(map[string]struct{})
	var dirs []string
	for _, art := range a.idx.Artifacts() {
		if art.Kind != model.KindBinaryLibrary {
			continue
		}
		d := path.Dir(art.Destination)
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)
	return dirs
}
