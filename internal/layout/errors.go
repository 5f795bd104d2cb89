package layout

import "fmt"

// ArtifactCollisionError reports two different files mapped to the same
// destination. SourceA sorts before SourceB.
type ArtifactCollisionError struct {
	Destination string
	SourceA     string
	SourceB     string
}

func (e *ArtifactCollisionError) Error() string {
	return fmt.Sprintf("artifact collision at %s: %s and %s differ", e.Destination, e.SourceA, e.SourceB)
}

func newCollision(dest, a, b string) *ArtifactCollisionError {
	if b < a {
		a, b = b, a
	}
	return &ArtifactCollisionError{Destination: dest, SourceA: a, SourceB: b}
}
