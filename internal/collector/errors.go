package collector

import "fmt"

// LibraryCollectionWarning is a non-fatal failure to collect one library.
type LibraryCollectionWarning struct {
	Library string
	Err     error
}

func (w *LibraryCollectionWarning) Error() string {
	return fmt.Sprintf("collecting library %s: %v", w.Library, w.Err)
}

func (w *LibraryCollectionWarning) Unwrap() error { return w.Err }
