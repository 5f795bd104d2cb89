package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles_SortedAndFiltered(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b/x.so", "a.so", "a.txt", "c/d/e.so"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
	}

	files, err := FindFiles(root, func(name string) bool { return strings.HasSuffix(name, ".so") })
	require.NoError(t, err)

	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, ToBundlePath(r))
	}
	assert.Equal(t, []string{"a.so", "b/x.so", "c/d/e.so"}, rel)
}

func TestFindFiles_FollowsFileSymlinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "libz.so.1.2.13"), []byte("z"), 0o644))
	require.NoError(t, os.Symlink("libz.so.1.2.13", filepath.Join(root, "libz.so.1")))
	require.NoError(t, os.Mkdir(filepath.Join(root, "real"), 0o755))
	require.NoError(t, os.Symlink("real", filepath.Join(root, "linkdir")))

	files, err := FindFiles(root, func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "libz.so.1"),
		filepath.Join(root, "libz.so.1.2.13"),
	}, files)
}

func TestFindFiles_DanglingSymlinkFails(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Symlink("gone.so", filepath.Join(root, "libgone.so")))

	_, err := FindFiles(root, func(string) bool { return true })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling symlink")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestIsDirIsFile(t *testing.T) {
	root := t.TempDir()
	assert.True(t, IsDir(root))
	assert.False(t, IsFile(root))
	assert.False(t, IsDir(filepath.Join(root, "missing")))
}
