package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/portabundle/internal/digest"
	"github.com/vk/portabundle/internal/layout"
	"github.com/vk/portabundle/internal/model"
)

// indexSink feeds collected artifacts into a layout index the way the build
// orchestrator does.
type indexSink struct {
	mu       sync.Mutex
	idx      *layout.Index
	warnings []*LibraryCollectionWarning
}

func newIndexSink() *indexSink { return &indexSink{idx: layout.NewIndex()} }

func (s *indexSink) Collected(_ *model.HostLibrary, artifacts []model.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range artifacts {
		s.idx.Add(a)
	}
}

func (s *indexSink) Failed(_ *model.HostLibrary, w *LibraryCollectionWarning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, w)
}

func (s *indexSink) destinations() []string {
	var out []string
	for _, a := range s.idx.Artifacts() {
		out = append(out, a.Destination)
	}
	return out
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

func newCollector(t *testing.T, workers int) *Collector {
	t.Helper()
	cache, err := digest.NewCache(64)
	require.NoError(t, err)
	return New(cache, workers)
}

func TestCollect_DeclaredBinaries(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nativekit")
	write(t, filepath.Join(root, "a.bin"), "A")
	write(t, filepath.Join(root, "b.bin"), "B")
	write(t, filepath.Join(root, "unrelated.bin"), "U")

	lib := &model.HostLibrary{Name: "nativekit", Root: root, Binaries: []string{"a.bin", "b.bin"}, PrivateDirs: []string{"lib"}, Suffixes: []string{".bin"}}
	got, err := newCollector(t, 2).Collect(context.Background(), lib)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "nativekit/a.bin", got[0].Destination)
	assert.Equal(t, "nativekit/b.bin", got[1].Destination)
	for _, a := range got {
		assert.Equal(t, model.KindBinaryLibrary, a.Kind)
		assert.Equal(t, "nativekit", a.Owner)
	}
}

func TestCollect_ScanFallbackWithoutDeclaration(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nativekit")
	write(t, filepath.Join(root, "lib", "c.bin"), "C")
	write(t, filepath.Join(root, "lib", "readme.txt"), "docs")

	lib := &model.HostLibrary{Name: "nativekit", Root: root, PrivateDirs: []string{"lib"}, Suffixes: []string{".bin"}}
	got, err := newCollector(t, 1).Collect(context.Background(), lib)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "nativekit/lib/c.bin", got[0].Destination)
	assert.Equal(t, digest.Bytes([]byte("C")), got[0].Digest)
}

func TestCollect_ScanSupplementsDeclaration(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Native-Kit")
	write(t, filepath.Join(root, "lib", "a.so"), "A")
	write(t, filepath.Join(root, "lib", "libz.so.1.2"), "Z")

	lib := &model.HostLibrary{Name: "Native-Kit", Root: root, Binaries: []string{"lib/a.so"}, PrivateDirs: []string{"lib"}, Suffixes: []string{".so"}}
	got, err := newCollector(t, 1).Collect(context.Background(), lib)
	require.NoError(t, err)

	var dests []string
	for _, a := range got {
		dests = append(dests, a.Destination)
	}
	assert.Equal(t, []string{"native_kit/lib/a.so", "native_kit/lib/libz.so.1.2"}, dests)
}

func TestCollect_MissingDeclaredBinaryFails(t *testing.T) {
	root := t.TempDir()
	lib := &model.HostLibrary{Name: "broken", Root: root, Binaries: []string{"gone.so"}}
	_, err := newCollector(t, 1).Collect(context.Background(), lib)
	assert.ErrorContains(t, err, "declared binary gone.so not found")
}

func TestCollect_Idempotent(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "lib", "x.dll"), "X")
	lib := &model.HostLibrary{Name: "x", Root: root, PrivateDirs: []string{"lib"}, Suffixes: []string{".dll"}}

	c := newCollector(t, 1)
	first, err := c.Collect(context.Background(), lib)
	require.NoError(t, err)
	second, err := c.Collect(context.Background(), lib)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second collection differs (-first +second):\n%s", diff)
	}

	sink := newIndexSink()
	require.NoError(t, c.CollectAll(context.Background(), []*model.HostLibrary{lib, lib}, sink))
	assert.Equal(t, 1, sink.idx.Len())
	assert.Empty(t, sink.idx.Collisions())
}

func TestCollectAll_OrderIndependent(t *testing.T) {
	base := t.TempDir()
	var libs []*model.HostLibrary
	for _, name := range []string{"alpha", "beta", "gamma"} {
		root := filepath.Join(base, name)
		write(t, filepath.Join(root, ".libs", name+".so"), name)
		libs = append(libs, &model.HostLibrary{Name: name, Root: root, PrivateDirs: []string{".libs"}, Suffixes: []string{".so"}})
	}
	reversed := []*model.HostLibrary{libs[2], libs[1], libs[0]}

	c := newCollector(t, 3)
	forward := newIndexSink()
	require.NoError(t, c.CollectAll(context.Background(), libs, forward))
	backward := newIndexSink()
	require.NoError(t, c.CollectAll(context.Background(), reversed, backward))

	assert.Equal(t, []string{"alpha/.libs/alpha.so", "beta/.libs/beta.so", "gamma/.libs/gamma.so"}, forward.destinations())
	if diff := cmp.Diff(forward.idx.Artifacts(), backward.idx.Artifacts()); diff != "" {
		t.Errorf("collection depends on order (-forward +backward):\n%s", diff)
	}
}

func TestCollect_ScanKeepsVersionedSymlinks(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nativekit")
	write(t, filepath.Join(root, "lib", "libz.so.1.2.13"), "Z")
	require.NoError(t, os.Symlink("libz.so.1.2.13", filepath.Join(root, "lib", "libz.so.1")))

	lib := &model.HostLibrary{Name: "nativekit", Root: root, PrivateDirs: []string{"lib"}, Suffixes: []string{".so"}}
	got, err := newCollector(t, 1).Collect(context.Background(), lib)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "nativekit/lib/libz.so.1", got[0].Destination)
	assert.Equal(t, filepath.Join(root, "lib", "libz.so.1"), got[0].Source)
	assert.Equal(t, digest.Bytes([]byte("Z")), got[0].Digest)
	assert.Equal(t, int64(1), got[0].Size)
	assert.Equal(t, "nativekit/lib/libz.so.1.2.13", got[1].Destination)
}

func TestCollectAll_DanglingSymlinkIsWarning(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nativekit")
	write(t, filepath.Join(root, "lib", "liba.so"), "A")
	require.NoError(t, os.Symlink("libz.so.1.2.13", filepath.Join(root, "lib", "libz.so.1")))
	lib := &model.HostLibrary{Name: "nativekit", Root: root, PrivateDirs: []string{"lib"}, Suffixes: []string{".so"}}

	sink := newIndexSink()
	require.NoError(t, newCollector(t, 1).CollectAll(context.Background(), []*model.HostLibrary{lib}, sink))

	assert.Empty(t, sink.destinations())
	require.Len(t, sink.warnings, 1)
	assert.Equal(t, "nativekit", sink.warnings[0].Library)
	assert.ErrorContains(t, sink.warnings[0], "dangling symlink")
}

func TestCollectAll_FailureIsIsolated(t *testing.T) {
	base := t.TempDir()
	good := &model.HostLibrary{Name: "good", Root: filepath.Join(base, "good"), PrivateDirs: []string{"lib"}, Suffixes: []string{".so"}}
	write(t, filepath.Join(good.Root, "lib", "g.so"), "G")
	missing := &model.HostLibrary{Name: "missing", Root: filepath.Join(base, "missing")}

	sink := newIndexSink()
	require.NoError(t, newCollector(t, 2).CollectAll(context.Background(), []*model.HostLibrary{missing, good}, sink))

	assert.Equal(t, []string{"good/lib/g.so"}, sink.destinations())
	require.Len(t, sink.warnings, 1)
	assert.Equal(t, "missing", sink.warnings[0].Library)
	assert.ErrorContains(t, sink.warnings[0], "not a directory")
}

func TestCollectAll_Cancelled(t *testing.T) {
	root := t.TempDir()
	lib := &model.HostLibrary{Name: "x", Root: root}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newCollector(t, 1).CollectAll(ctx, []*model.HostLibrary{lib}, newIndexSink())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIsBinary(t *testing.T) {
	suffixes := []string{".so", ".dll", ".pyd"}
	matches := []string{"a.so", "libz.so.1", "libz.so.1.2.13", "QT.DLL", "x.cp311-win_amd64.pyd"}
	misses := []string{"a.sox", "so", "readme.txt", "libz.so.abc", "a.so."}
	for _, n := range matches {
		assert.True(t, isBinary(n, suffixes), n)
	}
	for _, n := range misses {
		assert.False(t, isBinary(n, suffixes), n)
	}
}

func TestPlan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "libs"), 0o755))

	sources, err := Plan(&model.HostLibrary{Name: "p", Root: root, Binaries: []string{}, PrivateDirs: []string{"lib", "libs"}})
	require.NoError(t, err)
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.String())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"declared(0)", "scan(" + filepath.Join(root, "libs") + ")"}, names)
}
