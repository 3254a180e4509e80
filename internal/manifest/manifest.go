// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/weakres/weakres/internal/cueutil"
	"github.com/weakres/weakres/internal/host"
	"github.com/weakres/weakres/internal/refgraph"
	"github.com/weakres/weakres/pkg/modident"
)

const (
	// FormatCUE is a CUE manifest validated against the embedded #Manifest schema.
	FormatCUE Format = "cue"
	// FormatTOML is a TOML manifest.
	FormatTOML Format = "toml"
	// FormatYAML is a YAML manifest.
	FormatYAML Format = "yaml"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no known decoder.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	// ErrInvalidManifest is the sentinel error wrapped by EntryError.
	ErrInvalidManifest = errors.New("invalid manifest")

	//go:embed manifest_schema.cue
	manifestSchema string
)

type (
	// Format names a manifest encoding.
	Format string

	// Manifest is the decoded file.
	Manifest struct {
		Modules  []ModuleEntry  `json:"modules" yaml:"modules" toml:"modules"`
		Requests []RequestEntry `json:"requests,omitempty" yaml:"requests,omitempty" toml:"requests,omitempty"`
	}

	// ModuleEntry is a loaded module as written in the file.
	ModuleEntry struct {
		Name       string   `json:"name" yaml:"name" toml:"name"`
		References []string `json:"references,omitempty" yaml:"references,omitempty" toml:"references,omitempty"`
	}

	// RequestEntry is a load request as written in the file.
	RequestEntry struct {
		Requesting string `json:"requesting,omitempty" yaml:"requesting,omitempty" toml:"requesting,omitempty"`
		Wanted     string `json:"wanted" yaml:"wanted" toml:"wanted"`
	}

	// Module is a parsed ModuleEntry.
	Module struct {
		ID         modident.Identity
		References []modident.Identity
	}

	// Request is a parsed RequestEntry.
	Request struct {
		Requesting *modident.Identity
		Wanted     modident.Identity
	}

	// EntryError locates a bad entry, e.g. Field "modules[1].references[0]".
	EntryError struct {
		Field string
		Cause error
	}
)

// Error implements the error interface.
func (e *EntryError) Error() string {
	return fmt.Sprintf("invalid manifest entry %s: %v", e.Field, e.Cause)
}

// Unwrap returns ErrInvalidManifest and the underlying cause.
func (e *EntryError) Unwrap() []error { return []error{ErrInvalidManifest, e.Cause} }

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return parse(data, format, path)
}

// Parse decodes and validates a manifest in the given format.
func Parse(data []byte, format Format) (*Manifest, error) {
	return parse(data, format, "manifest."+string(format))
}

func parse(data []byte, format Format, filename string) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatCUE:
		decoded, err := cueutil.Decode[Manifest](manifestSchema, data, "#Manifest", cueutil.WithFilename(filename))
		if err != nil {
			return nil, err
		}
		m = *decoded
	case FormatTOML:
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	case FormatYAML:
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &m, nil
}

// Validate parses every full name in the manifest and reports the first bad entry.
func (m *Manifest) Validate() error {
	if _, err := m.ParsedModules(); err != nil {
		return err
	}
	_, err := m.ParsedRequests()
	return err
}

// ParsedModules returns the module entries as identities.
func (m *Manifest) ParsedModules() ([]Module, error) {
	out := make([]Module, 0, len(m.Modules))
	for i, entry := range m.Modules {
		id, err := modident.Parse(entry.Name)
		if err != nil {
			return nil, &EntryError{Field: fmt.Sprintf("modules[%d].name", i), Cause: err}
		}
		refs := make([]modident.Identity, 0, len(entry.References))
		for j, ref := range entry.References {
			refID, err := modident.Parse(ref)
			if err != nil {
				return nil, &EntryError{Field: fmt.Sprintf("modules[%d].references[%d]", i, j), Cause: err}
			}
			refs = append(refs, refID)
		}
		out = append(out, Module{ID: id, References: refs})
	}
	return out, nil
}

// ParsedRequests returns the request entries as identities.
func (m *Manifest) ParsedRequests() ([]Request, error) {
	out := make([]Request, 0, len(m.Requests))
	for i, entry := range m.Requests {
		wanted, err := modident.Parse(entry.Wanted)
		if err != nil {
			return nil, &EntryError{Field: fmt.Sprintf("requests[%d].wanted", i), Cause: err}
		}
		req := Request{Wanted: wanted}
		if entry.Requesting != "" {
			requesting, err := modident.Parse(entry.Requesting)
			if err != nil {
				return nil, &EntryError{Field: fmt.Sprintf("requests[%d].requesting", i), Cause: err}
			}
			req.Requesting = &requesting
		}
		out = append(out, req)
	}
	return out, nil
}

// Preload adds every module of the manifest to rt in file order.
func (m *Manifest) Preload(rt *host.Runtime) error {
	modules, err := m.ParsedModules()
	if err != nil {
		return err
	}
	for _, mod := range modules {
		rt.Preload(mod.ID, mod.References...)
	}
	return nil
}

// ReferenceOrder returns the simple names of the listed modules and their
// references, each name after every name it references. Names on a reference
// cycle are reported in a *refgraph.CycleError; the host tolerates such cycles.
func (m *Manifest) ReferenceOrder() ([]string, error) {
	modules, err := m.ParsedModules()
	if err != nil {
		return nil, err
	}
	g := refgraph.New[string]()
	for _, mod := range modules {
		g.AddNode(mod.ID.Name())
		for _, ref := range mod.References {
			g.AddEdge(ref.Name(), mod.ID.Name())
		}
	}
	return g.Order()
}
