// Package fetch retrieves a bundle built remotely: it polls a build status
// endpoint until the build finishes, downloads the archive and unpacks it.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/vk/portabundle/internal/ctxlog"
)

// Remote build states.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Defaults for polling.
const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 30 * time.Minute
)

// Status is the document served by the status endpoint.
type Status struct {
	Status      string `json:"status"`
	ArtifactURL string `json:"artifact_url"`
	WebURL      string `json:"web_url"`
	Message     string `json:"message"`
}

// BuildFailedError reports a remote build that finished unsuccessfully.
type BuildFailedError struct {
	Message string
	WebURL  string
}

func (e *BuildFailedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no details"
	}
	if e.WebURL != "" {
		return fmt.Sprintf("remote build failed: %s (see %s)", msg, e.WebURL)
	}
	return "remote build failed: " + msg
}

// TimeoutError reports a remote build still unfinished after the wait limit.
type TimeoutError struct {
	Waited time.Duration
	Last   string
	WebURL string
}

func (e *TimeoutError) Error() string {
	s := fmt.Sprintf("remote build not finished after %s (last status %q)", e.Waited, e.Last)
	if e.WebURL != "" {
		s += " (see " + e.WebURL + ")"
	}
	return s
}

// Fetcher polls and downloads.
type Fetcher struct {
	Client   *http.Client
	Interval time.Duration
	Timeout  time.Duration
}

// New returns a fetcher with default settings.
func New() *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: 5 * time.Minute}, Interval: DefaultInterval, Timeout: DefaultTimeout}
}

// Result describes a completed fetch.
type Result struct {
	Status *Status
	Files  []string
}

// Fetch waits for the build behind statusURL and extracts its archive into
// dir.
func (f *Fetcher) Fetch(ctx context.Context, statusURL, dir string) (*Result, error) {
	st, err := f.Wait(ctx, statusURL)
	if err != nil {
		return nil, err
	}
	artifact, err := resolveURL(statusURL, st.ArtifactURL)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "portabundle-fetch-*.zip")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := f.Download(ctx, artifact, tmp); err != nil {
		return nil, err
	}
	files, err := Extract(tmp.Name(), dir)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Artifact extracted.", "dir", dir, "files", len(files))
	return &Result{Status: st, Files: files}, nil
}

// Wait polls statusURL every Interval until the build succeeds, fails or
// Timeout elapses.
func (f *Fetcher) Wait(ctx context.Context, statusURL string) (*Status, error) {
	logger := ctxlog.FromContext(ctx)
	interval, timeout := f.Interval, f.Timeout
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)

	var last Status
	for {
		st, err := f.status(ctx, statusURL)
		if err != nil {
			return nil, err
		}
		last = *st
		logger.Debug("Remote build status.", "status", st.Status)

		switch st.Status {
		case StatusSuccess:
			if st.ArtifactURL == "" {
				return nil, fmt.Errorf("remote build succeeded without an artifact_url")
			}
			return st, nil
		case StatusFailure:
			return nil, &BuildFailedError{Message: st.Message, WebURL: st.WebURL}
		case StatusQueued, StatusRunning:
		default:
			return nil, fmt.Errorf("unknown remote build status %q", st.Status)
		}

		if time.Now().Add(interval).After(deadline) {
			return nil, &TimeoutError{Waited: timeout, Last: last.Status, WebURL: last.WebURL}
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (f *Fetcher) status(ctx context.Context, statusURL string) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll status: unexpected HTTP %d", resp.StatusCode)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}

// Download writes the body of rawURL to w.
func (f *Fetcher) Download(ctx context.Context, rawURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected HTTP %d", rawURL, resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if n == 0 {
		return errors.New("download: empty artifact")
	}
	return nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid artifact_url %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
