// Package digest computes content identities for bundle artifacts. Two files
// are the same artifact only if their SHA-256 digests match, so digests are
// cached per (path, size, modification time) to avoid re-hashing large
// binaries every time the collector and the assembler look at them.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of remembered file digests.
const DefaultCacheSize = 4096

type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// Entry is the digest of one file together with the stat data it was
// computed from.
type Entry struct {
	Digest string
	Size   int64
	Mode   os.FileMode
}

// Cache hashes files and remembers the result. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[cacheKey, string]
}

// NewCache creates a cache holding up to size digests.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("init digest cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// File returns the digest of the file at path.
func (c *Cache) File(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	if !info.Mode().IsRegular() {
		return Entry{}, fmt.Errorf("%s is not a regular file", path)
	}
	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime()}
	if sum, ok := c.entries.Get(key); ok {
		return Entry{Digest: sum, Size: info.Size(), Mode: info.Mode().Perm()}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Entry{}, fmt.Errorf("hash %s: %w", path, err)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	c.entries.Add(key, sum)
	return Entry{Digest: sum, Size: info.Size(), Mode: info.Mode().Perm()}, nil
}

// Bytes returns the digest of in-memory content.
func Bytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Len reports how many digests are cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}
