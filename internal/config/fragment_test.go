package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/portabundle/internal/model"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestAssemble_DefaultsFromEntryPoint(t *testing.T) {
	m, err := Assemble("/proj", &Fragment{
		Source:     "a.hcl",
		EntryPoint: strp("run.py"),
		Libraries:  []LibraryDefinition{{Name: "nativekit", Root: "vendor/nativekit"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "run", m.Name)
	assert.Equal(t, model.OutputDirectory, m.OutputMode)
	assert.Equal(t, DefaultOutputDir, m.OutputDir)
	assert.Equal(t, []string{"."}, m.ModulePaths)
	assert.Equal(t, DefaultModuleSuffixes, m.ModuleSuffixes)
	assert.True(t, m.Launcher.Enabled)

	lib := m.Libraries["nativekit"]
	require.NotNil(t, lib)
	assert.Equal(t, DefaultPrivateDirs, lib.PrivateDirs)
	assert.Equal(t, DefaultBinarySuffixes, lib.BinarySuffixes)

	host := m.HostLibrary(lib)
	assert.Equal(t, filepath.Join("/proj", "vendor/nativekit"), host.Root)
	assert.False(t, host.Declares())
}

func TestAssemble_MergesListsAndRejectsConflicts(t *testing.T) {
	m, err := Assemble("/proj",
		&Fragment{Source: "a.hcl", EntryPoint: strp("run.py"), ExplicitModules: []string{"app", "core"}},
		&Fragment{Source: "b.hcl", EntryPoint: strp("run.py"), ExplicitModules: []string{"core", "ui"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "core", "ui"}, m.ExplicitModules)

	_, err = Assemble("/proj",
		&Fragment{Source: "a.hcl", EntryPoint: strp("run.py")},
		&Fragment{Source: "b.hcl", EntryPoint: strp("main.py")},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry_point set to conflicting values in a.hcl and b.hcl")
}

func TestAssemble_LauncherCanBeDisabled(t *testing.T) {
	m, err := Assemble("/proj", &Fragment{
		EntryPoint: strp("run.py"),
		Launcher:   &LauncherFragment{Enabled: boolp(false)},
	})
	require.NoError(t, err)
	assert.False(t, m.Launcher.Enabled)
}

func TestAssemble_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		frag    *Fragment
		wantErr string
	}{
		{name: "missing entry", frag: &Fragment{}, wantErr: "missing entry_point"},
		{name: "bad mode", frag: &Fragment{EntryPoint: strp("run.py"), OutputMode: strp("tar")}, wantErr: "unknown output mode"},
		{name: "library without root", frag: &Fragment{EntryPoint: strp("run.py"), Libraries: []LibraryDefinition{{Name: "x"}}}, wantErr: `library "x" missing root`},
		{name: "escaping data", frag: &Fragment{EntryPoint: strp("run.py"), Data: []DataDefinition{{Source: "m", Destination: "../x"}}}, wantErr: "escapes the bundle"},
		{name: "dot name", frag: &Fragment{EntryPoint: strp("run.py"), Name: strp(".")}, wantErr: `bundle name "." must be a single file name`},
		{name: "parent name", frag: &Fragment{EntryPoint: strp("run.py"), Name: strp("..")}, wantErr: `bundle name ".." must be a single file name`},
		{name: "separator in name", frag: &Fragment{EntryPoint: strp("run.py"), Name: strp("a/b")}, wantErr: "must be a single file name"},
		{name: "publish without bucket", frag: &Fragment{EntryPoint: strp("run.py"), Publish: &PublishDefinition{Endpoint: "s3"}}, wantErr: "missing bucket"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Assemble("/proj", tc.frag)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestAssemble_DuplicateLibrary(t *testing.T) {
	_, err := Assemble("/proj",
		&Fragment{Source: "a.hcl", EntryPoint: strp("run.py"), Libraries: []LibraryDefinition{{Name: "x", Root: "x"}}},
		&Fragment{Source: "b.hcl", Libraries: []LibraryDefinition{{Name: "x", Root: "y"}}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `library "x" declared more than once`)
}

func TestHostLibrary_DeclaredEmptyListStillDeclares(t *testing.T) {
	m := &Manifest{Dir: "/p"}
	lib := m.HostLibrary(&LibraryDefinition{Name: "x", Root: "/abs", Binaries: []string{}})
	assert.True(t, lib.Declares())
	assert.Equal(t, "/abs", lib.Root)
}
