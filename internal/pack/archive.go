package pack

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/vk/portabundle/internal/model"
)

// writeArchive writes m as a zip archive rooted at <name>/. Raw artifacts
// are stored, everything else is deflated.
func (p *Packer) writeArchive(ctx context.Context, m *model.BundleManifest, file string) (err error) {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	level := p.Level
	if level == 0 {
		level = DefaultCompressionLevel
	}
	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	for _, a := range m.Artifacts() {
		if err := ctx.Err(); err != nil {
			return err
		}
		compress := !a.Raw()
		if err := p.Guard.Check(a, compress); err != nil {
			return err
		}
		hdr := &zip.FileHeader{
			Name:     path.Join(m.Settings.Name, a.Destination),
			Method:   zip.Store,
			Modified: p.Modified,
		}
		if compress {
			hdr.Method = zip.Deflate
		}
		hdr.SetMode(fileMode(a))

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("writing %s: %w", a.Destination, err)
		}
		src, err := open(a)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			return fmt.Errorf("writing %s: %w", a.Destination, err)
		}
	}
	return zw.Close()
}
