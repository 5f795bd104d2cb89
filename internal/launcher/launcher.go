// Package launcher generates the start scripts and README placed at the root
// of every bundle.
package launcher

import (
	"bytes"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/vk/portabundle/internal/layout"
	"github.com/vk/portabundle/internal/model"
)

// Options control what is generated.
type Options struct {
	Settings model.BundleSettings
	// LibraryDirs are bundle directories holding binaries.
	LibraryDirs []string
	// ExtraPath are additional bundle directories put on the search path.
	ExtraPath []string
}

type scriptData struct {
	Name          string
	Entry         string
	Interpreter   string
	Dirs          []string
	AttachConsole bool
}

// Generate returns the launcher scripts and README as synthetic artifacts.
func Generate(opts Options) ([]model.Artifact, error) {
	data := scriptData{
		Name:          opts.Settings.Name,
		Entry:         opts.Settings.EntryPoint,
		Dirs:          searchDirs(opts.LibraryDirs, opts.ExtraPath),
		AttachConsole: opts.Settings.AttachConsole,
	}
	if strings.HasSuffix(data.Entry, ".py") {
		data.Interpreter = "python"
	}

	sh, err := render(shTemplate, data)
	if err != nil {
		return nil, err
	}
	bat, err := render(batTemplate, data)
	if err != nil {
		return nil, err
	}
	readme, err := render(readmeTemplate, data)
	if err != nil {
		return nil, err
	}
	return []model.Artifact{
		layout.Generated(data.Name+".sh", sh, model.KindEntry, 0o755),
		layout.Generated(data.Name+".bat", crlf(bat), model.KindEntry, 0o755),
		layout.Generated("README.txt", readme, model.KindData, 0o644),
	}, nil
}

// searchDirs merges and sorts the directories, dropping duplicates and the
// bundle root itself.
func searchDirs(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, d := range list {
			d = path.Clean(strings.ReplaceAll(d, "\\", "/"))
			if d == "." || d == "" {
				continue
			}
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

var funcs = template.FuncMap{
	"win": func(p string) string { return strings.ReplaceAll(p, "/", `\`) },
}

func render(t *template.Template, data scriptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func crlf(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\n"), []byte("\r\n"))
}

var shTemplate = template.Must(template.New("sh").Funcs(funcs).Parse(`#!/bin/sh
# Starts {{.Name}} with the bundled libraries on the loader search path.
HERE="$(cd "$(dirname "$0")" && pwd)"
LIBS="$HERE{{range .Dirs}}:$HERE/{{.}}{{end}}"
LD_LIBRARY_PATH="$LIBS${LD_LIBRARY_PATH:+:$LD_LIBRARY_PATH}"
DYLD_LIBRARY_PATH="$LIBS${DYLD_LIBRARY_PATH:+:$DYLD_LIBRARY_PATH}"
PATH="$LIBS:$PATH"
export LD_LIBRARY_PATH DYLD_LIBRARY_PATH PATH
{{- if .Interpreter}}
PYTHONPATH="$HERE${PYTHONPATH:+:$PYTHONPATH}"
export PYTHONPATH
exec "${PYTHON:-{{.Interpreter}}3}" "$HERE/{{.Entry}}" "$@"
{{- else}}
exec "$HERE/{{.Entry}}" "$@"
{{- end}}
`))

var batTemplate = template.Must(template.New("bat").Funcs(funcs).Parse(`@echo off
chcp 65001 >nul
setlocal
set "HERE=%~dp0"
set "PATH=%HERE%{{range .Dirs}};%HERE%{{win .}}{{end}};%PATH%"
{{- if .Interpreter}}
set "PYTHONPATH=%HERE%"
set "PYTHONIOENCODING=utf-8"
if not defined PYTHON set "PYTHON={{.Interpreter}}"
"%PYTHON%" "%HERE%{{win .Entry}}" %*
{{- else}}
"%HERE%{{win .Entry}}" %*
{{- end}}
set "RC=%ERRORLEVEL%"
{{- if .AttachConsole}}
if not "%RC%"=="0" (
    echo.
    echo {{.Name}} exited with code %RC%. See README.txt for troubleshooting.
    pause
)
{{- end}}
exit /b %RC%
`))

var readmeTemplate = template.Must(template.New("readme").Funcs(funcs).Parse(`{{.Name}}

QUICK START:
- Windows: double-click {{.Name}}.bat
- Linux and macOS: run ./{{.Name}}.sh

LAYOUT:
  {{.Entry}}    entry point
  {{.Name}}.sh, {{.Name}}.bat    launchers
{{- range .Dirs}}
  {{.}}/    native libraries
{{- end}}

TROUBLESHOOTING:
- Start the application through a launcher so bundled libraries are found.
- On Windows, a missing DLL usually means the Visual C++ Redistributable
  2015-2022 is not installed: https://aka.ms/vs/17/release/vc_redist.x64.exe
- Do not move files out of the library directories listed above.
`))
