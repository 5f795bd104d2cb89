package collector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/vk/portabundle/internal/ctxlog"
	"github.com/vk/portabundle/internal/digest"
	"github.com/vk/portabundle/internal/fsutil"
	"github.com/vk/portabundle/internal/layout"
	"github.com/vk/portabundle/internal/model"
	"golang.org/x/sync/errgroup"
)

// Sink receives collection results. It is called from several goroutines.
type Sink interface {
	Collected(lib *model.HostLibrary, artifacts []model.Artifact)
	Failed(lib *model.HostLibrary, warning *LibraryCollectionWarning)
}

// Collector collects host library binaries.
type Collector struct {
	Digests *digest.Cache
	Workers int
}

// New creates a collector. workers <= 0 means one per CPU.
func New(digests *digest.Cache, workers int) *Collector {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Collector{Digests: digests, Workers: workers}
}

// CollectAll collects every library, each one independently. It only
// returns an error when ctx is cancelled.
func (c *Collector) CollectAll(ctx context.Context, libs []*model.HostLibrary, sink Sink) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)

	for _, lib := range libs {
		lib := lib
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			artifacts, err := c.safeCollect(gctx, lib)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				sink.Failed(lib, &LibraryCollectionWarning{Library: lib.Name, Err: err})
				return nil
			}
			sink.Collected(lib, artifacts)
			return nil
		})
	}
	return g.Wait()
}

func (c *Collector) safeCollect(ctx context.Context, lib *model.HostLibrary) (artifacts []model.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Collect(ctx, lib)
}

// Collect gathers the binaries of a single library. Collecting the same
// library twice yields the same artifacts.
func (c *Collector) Collect(ctx context.Context, lib *model.HostLibrary) ([]model.Artifact, error) {
	logger := ctxlog.FromContext(ctx).With("library", lib.Name)

	sources, err := Plan(lib)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		logger.Warn("No binaries declared and no private library directory found.")
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []model.Artifact
	add := func(file string) error {
		rel, err := filepath.Rel(lib.Root, file)
		if err != nil {
			return err
		}
		dest, err := layout.LibraryDestination(lib, rel)
		if err != nil {
			return err
		}
		if _, dup := seen[dest]; dup {
			return nil
		}
		e, err := c.Digests.File(file)
		if err != nil {
			return err
		}
		seen[dest] = struct{}{}
		out = append(out, model.Artifact{
			Source:      file,
			Destination: dest,
			Kind:        model.KindBinaryLibrary,
			Owner:       lib.Name,
			Size:        e.Size,
			Digest:      e.Digest,
			Mode:        uint32(e.Mode),
		})
		return nil
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch s := src.(type) {
		case Declared:
			for _, p := range s.Paths {
				file := filepath.Join(lib.Root, filepath.FromSlash(p))
				if !fsutil.IsFile(file) {
					return nil, fmt.Errorf("declared binary %s not found", p)
				}
				if err := add(file); err != nil {
					return nil, err
				}
			}
		case ScannedFallback:
			files, err := fsutil.FindFiles(s.Dir, func(name string) bool { return isBinary(name, s.Suffixes) })
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", s.Dir, err)
			}
			for _, f := range files {
				if err := add(f); err != nil {
					return nil, err
				}
			}
		}
		logger.Debug("Collected from source.", "source", src.String(), "total", len(out))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Destination < out[j].Destination })
	return out, nil
}
