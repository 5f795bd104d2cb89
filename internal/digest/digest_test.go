package digest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_FileMatchesBytes(t *testing.T) {
	c, err := NewCache(8)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "a.so")
	require.NoError(t, os.WriteFile(path, []byte("ELF"), 0o755))

	e, err := c.File(path)
	require.NoError(t, err)
	assert.Equal(t, Bytes([]byte("ELF")), e.Digest)
	assert.EqualValues(t, 3, e.Size)
	assert.Equal(t, os.FileMode(0o755), e.Mode)
	assert.Equal(t, 1, c.Len())

	again, err := c.File(path)
	require.NoError(t, err)
	assert.Equal(t, e, again)
	assert.Equal(t, 1, c.Len())
}

func TestCache_RejectsDirectories(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	_, err = c.File(t.TempDir())
	assert.Error(t, err)
}

func TestBytes_DiffersOnContent(t *testing.T) {
	assert.NotEqual(t, Bytes([]byte("a")), Bytes([]byte("b")))
}
