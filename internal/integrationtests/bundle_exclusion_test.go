package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/portabundle/internal/testutil"
)

// Test for: a glob exclusion removes a package and everything nested in it.
func TestBundle_Exclusion_RemovesNestedModules(t *testing.T) {
	// --- Arrange ---
	manifest := `
entry_point       = "src/run.py"
module_paths      = ["src"]
explicit_modules  = ["app"]
excluded_patterns = ["app.debug*"]
prune             = ["**/__pycache__/**"]

launcher {
  enabled = false
}
`
	// --- Act ---
	h := runBuild(t, project(manifest), "bundle.hcl")

	// --- Assert ---
	require.NoError(t, h.Err)
	assert.Equal(t, []string{"app/__init__.py", "app/main.py", "run.py"}, testutil.ListTree(t, h.Result.BundlePath))

	r := readReport(t, h.Root)
	assert.Equal(t, []string{"app.debug", "app.debug.tools"}, r.Excluded)
	assert.Empty(t, r.Warnings)
}

// Test for: exclusion wins over an explicit request and leaves a warning.
func TestBundle_Exclusion_WinsOverExplicitRequest(t *testing.T) {
	// --- Arrange ---
	manifest := `
entry_point        = "src/run.py"
module_paths       = ["src"]
explicit_modules   = ["app", "app.debug"]
explicit_libraries = ["nativekit"]
excluded_patterns  = ["app.debug", "nativekit", "legacy.*"]

library "nativekit" {
  root = "vendor/nativekit"
}
`
	// --- Act ---
	h := runBuild(t, project(manifest), "bundle.hcl")

	// --- Assert ---
	require.NoError(t, h.Err)
	r := readReport(t, h.Root)
	require.Len(t, r.Warnings, 3)
	assert.Contains(t, r.Warnings[0], `module "app.debug" is explicitly requested but excluded`)
	assert.Contains(t, r.Warnings[1], `library "nativekit"`)
	assert.Contains(t, r.Warnings[2], `exclusion pattern "legacy.*" matched nothing`)
	assert.NotContains(t, r.IncludedDestinations(), "nativekit/lib/c.bin")
}
