package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vk/portabundle/internal/model"
)

const rule = "============================================================"

// WriteText renders r as a plain diagnostic summary.
func (r *Report) WriteText(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintln(&sb, rule)
	fmt.Fprintf(&sb, "Build %s: %s\n", r.BuildID, r.Status)
	fmt.Fprintln(&sb, rule)
	fmt.Fprintf(&sb, "Stage reached: %s\n", r.Stage)
	if !r.StartedAt.IsZero() && !r.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "Duration:      %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	if r.BundlePath != "" {
		fmt.Fprintf(&sb, "Bundle:        %s\n", r.BundlePath)
	}
	if r.StaleBundle != "" {
		fmt.Fprintf(&sb, "Stale bundle:  %s (earlier build, not replaced)\n", r.StaleBundle)
	}

	var binaries, raw int
	for _, inc := range r.Included {
		if inc.Kind == model.KindBinaryLibrary {
			binaries++
		}
		if inc.Storage == model.StorageRaw {
			raw++
		}
	}
	fmt.Fprintf(&sb, "Included:      %d artifacts (%d binary libraries, %d stored raw), %s\n",
		len(r.Included), binaries, raw, humanize.Bytes(uint64(r.TotalSize())))
	fmt.Fprintf(&sb, "Skipped:       %d libraries\n", len(r.Skipped))
	fmt.Fprintf(&sb, "Collisions:    %d\n", len(r.Collisions))

	if len(r.Errors) > 0 {
		fmt.Fprintln(&sb, "\nErrors:")
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", e)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintln(&sb, "\nSkipped libraries:")
		for _, s := range r.Skipped {
			fmt.Fprintf(&sb, "  - %s: %s\n", s.Library, s.Reason)
		}
	}
	if len(r.Collisions) > 0 {
		fmt.Fprintln(&sb, "\nCollisions:")
		for _, c := range r.Collisions {
			fmt.Fprintf(&sb, "  - %s\n      %s\n      %s\n", c.Destination, c.SourceA, c.SourceB)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(&sb, "\nWarnings:")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}
	if len(r.Excluded) > 0 {
		fmt.Fprintf(&sb, "\nExcluded: %s\n", strings.Join(r.Excluded, ", "))
	}

	if len(r.Included) > 0 {
		fmt.Fprintln(&sb, "\nArtifacts:")
		tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
		for _, inc := range r.Included {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", inc.Destination, inc.Kind, inc.Storage, humanize.Bytes(uint64(inc.Size)))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
