package integration_tests

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: invalid HCL is rejected before anything is built.
func TestManifest_InvalidHCL_IsRejected(t *testing.T) {
	// --- Arrange ---
	invalidHCL := `
library "nativekit" {
  root = "vendor/nativekit"
	// Missing closing brace here
`
	// --- Act ---
	h := runBuild(t, project(invalidHCL), "bundle.hcl")

	// --- Assert ---
	require.Error(t, h.Err)
	errMsg := h.Err.Error()
	if !strings.Contains(errMsg, "failed to parse") && !strings.Contains(errMsg, "failed to decode") {
		t.Errorf("expected error message to indicate an HCL parsing failure, but got: %s", errMsg)
	}
	assert.Nil(t, h.Result)
}

// Test for: manifest expressions see the manifest directory and functions.
func TestManifest_Templating_ResolvesLibraryRoot(t *testing.T) {
	// --- Arrange ---
	manifest := `
name               = lower("NEURO")
entry_point        = "src/run.py"
explicit_libraries = ["nativekit"]

library "nativekit" {
  root     = "${manifest_dir}/vendor/${replace("native_kit", "_", "")}"
  binaries = [for n in ["a", "b"] : "${n}.bin"]
}
`
	// --- Act ---
	h := runBuild(t, project(manifest), "bundle.hcl")

	// --- Assert ---
	require.NoError(t, h.Err)
	assert.Contains(t, h.Result.Report.IncludedDestinations(), "nativekit/b.bin")
	assert.Contains(t, h.Result.BundlePath, "neuro")
}

// Test for: an unknown attribute is a decode error, not silently ignored.
func TestManifest_UnknownAttribute_IsRejected(t *testing.T) {
	// --- Arrange ---
	manifest := `
entry_point = "src/run.py"
colour      = "blue"
`
	// --- Act ---
	h := runBuild(t, project(manifest), "bundle.hcl")

	// --- Assert ---
	require.Error(t, h.Err)
	assert.Contains(t, h.Err.Error(), "failed to decode")
}
