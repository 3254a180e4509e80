// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weakres/weakres/internal/host"
	"github.com/weakres/weakres/internal/refgraph"
	"github.com/weakres/weakres/internal/testutil"
	"github.com/weakres/weakres/pkg/modident"
)

const (
	cueManifest = `
modules: [
	{name: "App, Version=1.0.0.0", references: ["Lib, Version=2.0.0.0"]},
	{name: "Lib, Version=1.5.0.0"},
]
requests: [
	{requesting: "App, Version=1.0.0.0", wanted: "Lib, Version=2.0.0.0"},
	{wanted: "Missing"},
]
`

	tomlManifest = `
[[modules]]
name = "App, Version=1.0.0.0"
references = ["Lib, Version=2.0.0.0"]

[[modules]]
name = "Lib, Version=1.5.0.0"

[[requests]]
requesting = "App, Version=1.0.0.0"
wanted = "Lib, Version=2.0.0.0"

[[requests]]
wanted = "Missing"
`

	yamlManifest = `
modules:
  - name: App, Version=1.0.0.0
    references: ["Lib, Version=2.0.0.0"]
  - name: Lib, Version=1.5.0.0
requests:
  - requesting: App, Version=1.0.0.0
    wanted: Lib, Version=2.0.0.0
  - wanted: Missing
`
)

func TestParse_AllFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		data   string
	}{
		{FormatCUE, cueManifest},
		{FormatTOML, tomlManifest},
		{FormatYAML, yamlManifest},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			m, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if len(m.Modules) != 2 || len(m.Requests) != 2 {
				t.Fatalf("Parse() = %d modules, %d requests; want 2, 2", len(m.Modules), len(m.Requests))
			}

			modules, err := m.ParsedModules()
			if err != nil {
				t.Fatalf("ParsedModules() unexpected error: %v", err)
			}
			if got := modules[0].References[0].Version().String(); got != "2.0.0.0" {
				t.Errorf("App reference version = %q, want 2.0.0.0", got)
			}

			requests, err := m.ParsedRequests()
			if err != nil {
				t.Fatalf("ParsedRequests() unexpected error: %v", err)
			}
			if requests[0].Requesting == nil || requests[0].Requesting.Name() != "App" {
				t.Errorf("requests[0].Requesting = %v, want App", requests[0].Requesting)
			}
			if requests[1].Requesting != nil {
				t.Errorf("requests[1].Requesting = %v, want nil", requests[1].Requesting)
			}
			if requests[1].Wanted.Name() != "Missing" {
				t.Errorf("requests[1].Wanted = %v, want Missing", requests[1].Wanted)
			}
		})
	}
}

func TestParse_CUESchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"empty module name", `modules: [{name: ""}]`},
		{"unknown field", `modules: [{name: "A", version: "1.0"}]`},
		{"missing wanted", `modules: [], requests: [{requesting: "A"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse([]byte(tt.data), FormatCUE); err == nil {
				t.Error("Parse() should reject the manifest")
			}
		})
	}
}

func TestParse_InvalidIdentity(t *testing.T) {
	t.Parallel()

	data := "modules:\n  - name: A\n    references: [\"B, Version=x\"]\n"
	_, err := Parse([]byte(data), FormatYAML)
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("Parse() error = %v, want ErrInvalidManifest", err)
	}
	if !errors.Is(err, modident.ErrInvalidVersion) {
		t.Errorf("Parse() error = %v, want the version error preserved", err)
	}
	var entryErr *EntryError
	if !errors.As(err, &entryErr) || entryErr.Field != "modules[0].references[0]" {
		t.Errorf("EntryError.Field = %v, want modules[0].references[0]", entryErr)
	}
}

func TestParse_YAMLUnknownField(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("modules: []\nextra: 1\n"), FormatYAML); err == nil {
		t.Error("Parse() should reject unknown YAML fields")
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"m.cue", FormatCUE, false},
		{"dir/m.TOML", FormatTOML, false},
		{"m.yaml", FormatYAML, false},
		{"m.yml", FormatYAML, false},
		{"m.json", "", true},
		{"manifest", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("FormatFromPath(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "host.toml")
	if err := os.WriteFile(path, []byte(tomlManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(m.Modules) != 2 {
		t.Errorf("Load() modules = %d, want 2", len(m.Modules))
	}

	_, err = Load(filepath.Join(t.TempDir(), "absent.cue"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(absent) error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_ErrorNamesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.cue")
	if err := os.WriteFile(path, []byte(`modules: [{name: 1}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "broken.cue") {
		t.Errorf("Load() error = %v, want it to name broken.cue", err)
	}
}

func TestManifest_Preload(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(cueManifest), FormatCUE)
	if err != nil {
		t.Fatal(err)
	}

	rt := host.New(host.WithLogger(testutil.DiscardLogger()))
	if err := m.Preload(rt); err != nil {
		t.Fatalf("Preload() unexpected error: %v", err)
	}

	loaded, err := rt.LoadedModules(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadedModules() = %d modules, want 2", len(loaded))
	}
	if got := loaded[1].Identity().FullName(); !strings.HasPrefix(got, "Lib, Version=1.5.0.0") {
		t.Errorf("second module = %q, want Lib 1.5", got)
	}
}

func TestManifest_ReferenceOrder(t *testing.T) {
	t.Parallel()

	m := &Manifest{Modules: []ModuleEntry{
		{Name: "App", References: []string{"Lib", "Log"}},
		{Name: "Lib, Version=1.0", References: []string{"Core"}},
		{Name: "Core"},
	}}
	got, err := m.ReferenceOrder()
	if err != nil {
		t.Fatalf("ReferenceOrder() unexpected error: %v", err)
	}
	want := []string{"Log", "Core", "Lib", "App"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ReferenceOrder() = %v, want %v", got, want)
	}
}

func TestManifest_ReferenceOrderCycle(t *testing.T) {
	t.Parallel()

	m := &Manifest{Modules: []ModuleEntry{
		{Name: "A", References: []string{"B"}},
		{Name: "B", References: []string{"A"}},
	}}
	_, err := m.ReferenceOrder()
	var cycleErr *refgraph.CycleError[string]
	if !errors.As(err, &cycleErr) || len(cycleErr.Nodes) != 2 {
		t.Errorf("ReferenceOrder() error = %v, want a two-node cycle", err)
	}
}
