package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteTree creates a temporary directory and writes files into it. Keys are
// slash-separated paths relative to the root. Files whose name ends in a
// native binary suffix (or a versioned .so) are written executable.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), modeFor(name)))
	}
	if os.Getenv("PORTABUNDLE_TEST_LOGS") == "true" {
		t.Logf("--- Fixture tree for %s at %s (%d files) ---", t.Name(), root, len(files))
	}
	return root
}

// ListTree returns every regular file under root as slash-separated paths
// relative to root, sorted.
func ListTree(t *testing.T, root string) []string {
	t.Helper()

	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func modeFor(name string) os.FileMode {
	for _, s := range []string{".so", ".dll", ".dylib", ".pyd", ".bin"} {
		if strings.HasSuffix(name, s) || strings.Contains(name, s+".") {
			return 0o755
		}
	}
	return 0o644
}
