package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vk/portabundle/internal/model"
)

// Status is the terminal outcome of a build.
type Status string

const (
	StatusRunning   Status = "Running"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
)

// Included summarizes one artifact that made it into the bundle.
type Included struct {
	Destination string        `json:"destination"`
	Source      string        `json:"source"`
	Kind        model.Kind    `json:"kind"`
	Storage     model.Storage `json:"storage"`
	Owner       string        `json:"owner,omitempty"`
	Size        int64         `json:"size"`
	Digest      string        `json:"digest,omitempty"`
}

// Skipped names a library whose collection failed and why.
type Skipped struct {
	Library string `json:"library"`
	Reason  string `json:"reason"`
}

// Collision records two sources competing for one destination.
type Collision struct {
	Destination string `json:"destination"`
	SourceA     string `json:"source_a"`
	SourceB     string `json:"source_b"`
}

// Report is the frozen record of one build.
type Report struct {
	BuildID    string    `json:"build_id"`
	Status     Status    `json:"status"`
	Stage      string    `json:"stage"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	BundlePath string    `json:"bundle_path,omitempty"`
	// StaleBundle names a bundle from an earlier build left at the output
	// path of a failed build.
	StaleBundle string      `json:"stale_bundle,omitempty"`
	Included    []Included  `json:"included"`
	Excluded    []string    `json:"excluded"`
	Skipped     []Skipped   `json:"skipped"`
	Collisions  []Collision `json:"collisions"`
	Warnings    []string    `json:"warnings"`
	Errors      []string    `json:"errors"`
}

// IncludedDestinations lists the destinations of every included artifact.
func (r *Report) IncludedDestinations() []string {
	out := make([]string, 0, len(r.Included))
	for _, inc := range r.Included {
		out = append(out, inc.Destination)
	}
	return out
}

// TotalSize sums the sizes of all included artifacts.
func (r *Report) TotalSize() int64 {
	var total int64
	for _, inc := range r.Included {
		total += inc.Size
	}
	return total
}

// Builder accumulates report data during a build. It is not safe for
// concurrent use; the orchestrator serializes access behind its aggregator
// lock.
type Builder struct {
	r        Report
	finished bool
}

// NewBuilder starts a report for buildID.
func NewBuilder(buildID string, now time.Time) *Builder {
	return &Builder{r: Report{
		BuildID:    buildID,
		Status:     StatusRunning,
		StartedAt:  now,
		Included:   []Included{},
		Excluded:   []string{},
		Skipped:    []Skipped{},
		Collisions: []Collision{},
		Warnings:   []string{},
		Errors:     []string{},
	}}
}

// Warn records a non-fatal observation.
func (b *Builder) Warn(format string, args ...any) {
	b.r.Warnings = append(b.r.Warnings, fmt.Sprintf(format, args...))
}

// Skip records a library that could not be collected.
func (b *Builder) Skip(library string, reason error) {
	b.r.Skipped = append(b.r.Skipped, Skipped{Library: library, Reason: reason.Error()})
	b.Warn("library collection failed for %s: %v", library, reason)
}

// Exclude records a module or library name dropped by the exclusion list.
func (b *Builder) Exclude(name string) {
	b.r.Excluded = append(b.r.Excluded, name)
}

// Collide records a destination collision.
func (b *Builder) Collide(c Collision) {
	b.r.Collisions = append(b.r.Collisions, c)
}

// Error records a fatal error.
func (b *Builder) Error(err error) {
	b.r.Errors = append(b.r.Errors, err.Error())
}

// Stage records the pipeline stage reached so far.
func (b *Builder) Stage(stage string) {
	b.r.Stage = stage
}

// Include records the final artifact list.
func (b *Builder) Include(artifacts []model.Artifact) {
	b.r.Included = b.r.Included[:0]
	for _, a := range artifacts {
		b.r.Included = append(b.r.Included, Included{
			Destination: a.Destination,
			Source:      a.Origin(),
			Kind:        a.Kind,
			Storage:     a.Storage,
			Owner:       a.Owner,
			Size:        a.Size,
			Digest:      a.Digest,
		})
	}
}

// SetBundlePath records where the bundle was written.
func (b *Builder) SetBundlePath(path string) {
	b.r.BundlePath = path
}

// MarkStale records that path holds the bundle of an earlier build which
// this build did not replace.
func (b *Builder) MarkStale(path string) {
	b.r.StaleBundle = path
	b.Warn("bundle at %s is from an earlier build; this build failed and did not replace it", path)
}

// Finish freezes the report with its terminal status. Lists are sorted so
// reports of identical builds compare equal apart from IDs and timestamps.
func (b *Builder) Finish(status Status, now time.Time) *Report {
	if b.finished {
		panic("report: Finish called twice")
	}
	b.finished = true
	b.r.Status = status
	b.r.FinishedAt = now
	if status == StatusFailed {
		b.r.BundlePath = ""
	} else {
		b.r.StaleBundle = ""
	}
	sort.Slice(b.r.Included, func(i, j int) bool { return b.r.Included[i].Destination < b.r.Included[j].Destination })
	sort.Strings(b.r.Excluded)
	sort.Slice(b.r.Skipped, func(i, j int) bool { return b.r.Skipped[i].Library < b.r.Skipped[j].Library })
	sort.Slice(b.r.Collisions, func(i, j int) bool {
		ci, cj := b.r.Collisions[i], b.r.Collisions[j]
		if ci.Destination != cj.Destination {
			return ci.Destination < cj.Destination
		}
		return ci.SourceA+ci.SourceB < cj.SourceA+cj.SourceB
	})
	out := b.r
	return &out
}

// WriteJSON encodes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadJSON decodes a report written by WriteJSON.
func ReadJSON(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode build report: %w", err)
	}
	return &r, nil
}

const (
	JSONFileName = "build-report.json"
	TextFileName = "build-report.txt"
)

// WriteFiles writes both renderings into dir.
func (r *Report) WriteFiles(dir string) (jsonPath, textPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}
	jsonPath = filepath.Join(dir, JSONFileName)
	textPath = filepath.Join(dir, TextFileName)

	if err := writeFile(jsonPath, r.WriteJSON); err != nil {
		return "", "", err
	}
	if err := writeFile(textPath, r.WriteText); err != nil {
		return "", "", err
	}
	return jsonPath, textPath, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
