package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/portabundle/internal/app"
	"github.com/vk/portabundle/internal/build"
	"github.com/vk/portabundle/internal/report"
	"github.com/vk/portabundle/internal/testutil"
)

// harnessResult holds the outcomes of an end-to-end build.
type harnessResult struct {
	Root      string
	LogOutput string
	Result    *build.Result
	Err       error
}

// runBuild writes files into a fresh project, loads manifestName from it and
// runs a full build.
func runBuild(t *testing.T, files map[string]string, manifestName string) *harnessResult {
	t.Helper()

	root := testutil.WriteTree(t, files)
	cfg, err := app.NewConfig(app.Config{
		ManifestPath: filepath.Join(root, manifestName),
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  4,
	})
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	a, err := app.NewApp(context.Background(), logs, cfg, nil)
	if err != nil {
		return &harnessResult{Root: root, LogOutput: logs.String(), Err: err}
	}
	res, runErr := a.Run(context.Background())

	if os.Getenv("PORTABUNDLE_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	return &harnessResult{Root: root, LogOutput: logs.String(), Result: res, Err: runErr}
}

// readReport loads build-report.json from the project's dist directory.
func readReport(t *testing.T, root string) *report.Report {
	t.Helper()
	f, err := os.Open(filepath.Join(root, "dist", report.JSONFileName))
	require.NoError(t, err)
	defer f.Close()
	r, err := report.ReadJSON(f)
	require.NoError(t, err)
	return r
}

// project is the shared fixture: an entry script, an `app` package with a
// debug subpackage, and a host library `nativekit` with binaries at its root
// and in its private lib directory.
func project(manifest string) map[string]string {
	return map[string]string{
		"bundle.hcl":                       manifest,
		"src/run.py":                       "import app\napp.main()\n",
		"src/app/__init__.py":              "",
		"src/app/main.py":                  "def main(): pass\n",
		"src/app/debug/__init__.py":        "",
		"src/app/debug/tools.py":           "TRACE = True\n",
		"src/app/__pycache__/main.cpython": "bytecode",
		"vendor/nativekit/a.bin":           "\x7fELF a",
		"vendor/nativekit/b.bin":           "\x7fELF b",
		"vendor/nativekit/lib/c.bin":       "\x7fELF c",
		"vendor/nativekit/lib/libz.so.1":   "\x7fELF z",
		"assets/models/net.pt":             "weights",
	}
}
