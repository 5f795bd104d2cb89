package layout

import (
	"sort"

	"github.com/vk/portabundle/internal/model"
)

// Index maps destinations to artifacts. It is not safe for concurrent use;
// the orchestrator guards it with the same lock as the build report.
//
// Artifacts with equal content at one destination keep the one with the
// smallest origin, so the result does not depend on insertion order.
type Index struct {
	byDest map[string]model.Artifact
	// origins maps destination to digest to the smallest origin seen.
	origins map[string]map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byDest:  make(map[string]model.Artifact),
		origins: make(map[string]map[string]string),
	}
}

// Add records a. It returns false when an artifact with the same destination
// and content is already present. A destination already taken by different
// content is recorded as a collision and returned.
func (x *Index) Add(a model.Artifact) (bool, *ArtifactCollisionError) {
	byDigest, ok := x.origins[a.Destination]
	if !ok {
		x.origins[a.Destination] = map[string]string{a.Digest: a.Origin()}
		x.byDest[a.Destination] = a
		return true, nil
	}
	if origin, dup := byDigest[a.Digest]; dup {
		if a.Origin() < origin {
			byDigest[a.Digest] = a.Origin()
			if x.byDest[a.Destination].Digest == a.Digest {
				x.byDest[a.Destination] = a
			}
		}
		return false, nil
	}
	byDigest[a.Digest] = a.Origin()
	prev := x.byDest[a.Destination]
	return false, newCollision(a.Destination, byDigest[prev.Digest], a.Origin())
}

// Len returns the number of distinct destinations.
func (x *Index) Len() int { return len(x.byDest) }

// Get returns the artifact at dest.
func (x *Index) Get(dest string) (model.Artifact, bool) {
	a, ok := x.byDest[dest]
	return a, ok
}

// Artifacts returns every artifact sorted by destination.
func (x *Index) Artifacts() []model.Artifact {
	out := make([]model.Artifact, 0, len(x.byDest))
	for _, a := range x.byDest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Destination < out[j].Destination })
	return out
}

// Collisions returns the recorded collisions in a stable order. Each
// destination reports its smallest origin against every other content.
func (x *Index) Collisions() []*ArtifactCollisionError {
	var out []*ArtifactCollisionError
	for dest, byDigest := range x.origins {
		if len(byDigest) < 2 {
			continue
		}
		origins := make([]string, 0, len(byDigest))
		for _, o := range byDigest {
			origins = append(origins, o)
		}
		sort.Strings(origins)
		for _, o := range origins[1:] {
			out = append(out, newCollision(dest, origins[0], o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Destination != out[j].Destination {
			return out[i].Destination < out[j].Destination
		}
		if out[i].SourceA != out[j].SourceA {
			return out[i].SourceA < out[j].SourceA
		}
		return out[i].SourceB < out[j].SourceB
	})
	return out
}
