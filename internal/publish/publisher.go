package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/portabundle/internal/ctxlog"
	"github.com/vk/portabundle/internal/fsutil"
)

// Publisher uploads a bundle and its reports under <prefix>/<build id>/.
type Publisher struct {
	Store  ObjectStore
	Prefix string
}

// Publish uploads every file of bundlePath (a directory or an archive) and
// the extra files, returning the object keys written.
func (p *Publisher) Publish(ctx context.Context, buildID, bundlePath string, extra ...string) ([]string, error) {
	buildID = strings.TrimSpace(buildID)
	if buildID == "" {
		return nil, fmt.Errorf("build id is required")
	}
	logger := ctxlog.FromContext(ctx)

	type upload struct{ file, rel string }
	var uploads []upload
	if fsutil.IsDir(bundlePath) {
		files, err := fsutil.FindFiles(bundlePath, func(string) bool { return true })
		if err != nil {
			return nil, err
		}
		base := filepath.Base(bundlePath)
		for _, f := range files {
			rel, err := filepath.Rel(bundlePath, f)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, upload{f, path.Join(base, filepath.ToSlash(rel))})
		}
	} else {
		uploads = append(uploads, upload{bundlePath, filepath.Base(bundlePath)})
	}
	for _, f := range extra {
		uploads = append(uploads, upload{f, filepath.Base(f)})
	}

	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		key := objectKey(p.Prefix, buildID, u.rel)
		if err := p.put(ctx, key, u.file); err != nil {
			return keys, fmt.Errorf("upload %s: %w", u.rel, err)
		}
		logger.Debug("Uploaded bundle file.", "key", key)
		keys = append(keys, key)
	}
	logger.Info("Bundle published.", "objects", len(keys), "prefix", objectKey(p.Prefix, buildID, ""))
	return keys, nil
}

func (p *Publisher) put(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	return p.Store.Put(ctx, key, f, info.Size(), contentType(file))
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".zip":
		return "application/zip"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func objectKey(prefix, buildID, rel string) string {
	parts := []string{}
	if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, buildID)
	if rel = strings.TrimLeft(rel, "/"); rel != "" {
		parts = append(parts, rel)
	}
	return strings.Join(parts, "/")
}
