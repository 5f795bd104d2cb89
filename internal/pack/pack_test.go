package pack

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/portabundle/internal/digest"
	"github.com/vk/portabundle/internal/model"
)

func fixture(t *testing.T, mode model.OutputMode) (*model.BundleManifest, []byte) {
	t.Helper()
	src := t.TempDir()
	bin := []byte("\x7fELF binary payload that must never change")
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.bin"), bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.py"), []byte("print('hi')\n"), 0o644))

	artifacts := []model.Artifact{
		{Source: filepath.Join(src, "main.py"), Destination: "main.py", Kind: model.KindEntry, Storage: model.StorageCompress, Mode: 0o644, Digest: digest.Bytes([]byte("print('hi')\n"))},
		{Source: filepath.Join(src, "a.bin"), Destination: "nativekit/a.bin", Kind: model.KindBinaryLibrary, Storage: model.StorageRaw, Mode: 0o755, Digest: digest.Bytes(bin)},
		{Content: []byte("readme"), Destination: "README.txt", Kind: model.KindData, Storage: model.StorageCompress},
	}
	settings := model.BundleSettings{Name: "app", Mode: mode, EntryPoint: "main.py"}
	return model.NewBundleManifest(settings, artifacts), bin
}

func TestStage_DirectoryCommit(t *testing.T) {
	m, bin := fixture(t, model.OutputDirectory)
	out := t.TempDir()
	p := New(out)

	staged, err := p.Stage(context.Background(), m, "b1")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(filepath.Dir(staged.Path()), IncompleteMarker))
	assert.NoDirExists(t, filepath.Join(out, "app"))

	final, err := staged.Commit()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "app"), final)

	got, err := os.ReadFile(filepath.Join(final, "nativekit", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	info, err := os.Stat(filepath.Join(final, "nativekit", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	readme, err := os.ReadFile(filepath.Join(final, "README.txt"))
	require.NoError(t, err)
	assert.Equal(t, "readme", string(readme))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging directory must be gone")
	assert.NoError(t, staged.Discard())
}

func TestStage_CommitReplacesPreviousBundle(t *testing.T) {
	m, _ := fixture(t, model.OutputDirectory)
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "app", "stale.txt"), []byte("old"), 0o644))

	staged, err := New(out).Stage(context.Background(), m, "b2")
	require.NoError(t, err)
	final, err := staged.Commit()
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(final, "stale.txt"))
	assert.FileExists(t, filepath.Join(final, "main.py"))

	_, err = staged.Commit()
	assert.Error(t, err)
}

func TestStage_DiscardLeavesNothing(t *testing.T) {
	m, _ := fixture(t, model.OutputSingleFile)
	out := t.TempDir()

	staged, err := New(out).Stage(context.Background(), m, "b3")
	require.NoError(t, err)
	require.NoError(t, staged.Discard())

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStage_ArchiveStoresBinariesRaw(t *testing.T) {
	m, bin := fixture(t, model.OutputSingleFile)
	out := t.TempDir()

	staged, err := New(out).Stage(context.Background(), m, "b4")
	require.NoError(t, err)
	final, err := staged.Commit()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "app.zip"), final)

	zr, err := zip.OpenReader(final)
	require.NoError(t, err)
	defer zr.Close()

	methods := map[string]uint16{}
	for _, f := range zr.File {
		methods[f.Name] = f.Method
		if f.Name == "app/nativekit/a.bin" {
			rc, err := f.Open()
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			assert.Equal(t, bin, got)
			assert.Equal(t, uint64(len(bin)), f.CompressedSize64)
		}
	}
	assert.Equal(t, map[string]uint16{
		"app/README.txt":      zip.Deflate,
		"app/main.py":         zip.Deflate,
		"app/nativekit/a.bin": zip.Store,
	}, methods)
}

func TestStage_GuardRejectsMislabelledBinary(t *testing.T) {
	src := filepath.Join(t.TempDir(), "x.so")
	require.NoError(t, os.WriteFile(src, []byte("so"), 0o755))
	m := model.NewBundleManifest(model.BundleSettings{Name: "app", Mode: model.OutputSingleFile}, []model.Artifact{
		{Source: src, Destination: "lib/x.so", Kind: model.KindBinaryLibrary, Storage: model.StorageCompress},
	})
	out := t.TempDir()

	_, err := New(out).Stage(context.Background(), m, "b5")
	assert.ErrorContains(t, err, "storage policy violation")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStage_ReservedDestination(t *testing.T) {
	m := model.NewBundleManifest(model.BundleSettings{Name: "app"}, []model.Artifact{
		{Content: []byte("x"), Destination: IncompleteMarker, Kind: model.KindData, Storage: model.StorageCompress},
	})
	_, err := New(t.TempDir()).Stage(context.Background(), m, "b6")
	assert.ErrorContains(t, err, "reserved")
}

func TestStage_RefusesBundleOutsideOutputDir(t *testing.T) {
	for _, name := range []string{"..", "."} {
		t.Run(name, func(t *testing.T) {
			project := t.TempDir()
			precious := filepath.Join(project, "precious.txt")
			require.NoError(t, os.WriteFile(precious, []byte("keep"), 0o644))
			out := filepath.Join(project, "dist")

			m := model.NewBundleManifest(model.BundleSettings{Name: name, EntryPoint: "README.txt"}, []model.Artifact{
				{Content: []byte("readme"), Destination: "README.txt", Kind: model.KindEntry, Storage: model.StorageCompress},
			})
			_, err := New(out).Stage(context.Background(), m, "b7")
			assert.ErrorContains(t, err, "not inside output directory")

			_, statErr := os.Stat(precious)
			assert.NoError(t, statErr)
			entries, err := os.ReadDir(out)
			require.NoError(t, err)
			assert.Empty(t, entries, "staging output must be removed")
		})
	}
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/out", "/out/app"))
	assert.True(t, within("/out", "/out/app.zip"))
	assert.False(t, within("/out", "/out"))
	assert.False(t, within("/out", "/"))
	assert.False(t, within("/out", "/out/../other"))
	assert.True(t, within("/out", "/out/..app"))
}
