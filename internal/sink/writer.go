// SPDX-License-Identifier: MPL-2.0

package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/weakres/weakres/pkg/conflict"
)

const (
	// FormatText writes Record.String() lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
	// FormatYAML writes one YAML document per record.
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

type (
	// Format selects how WriterSink encodes records.
	Format string

	// WriterSink encodes records to an io.Writer. It is safe for concurrent use.
	WriterSink struct {
		format Format

		mu      sync.Mutex
		w       io.Writer
		jsonEnc *json.Encoder
		yamlEnc *yaml.Encoder
	}
)

// Formats lists the supported output formats.
func Formats() []Format { return []Format{FormatText, FormatJSON, FormatYAML} }

// ParseFormat validates s as an output format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json or yaml)", ErrUnknownFormat, s)
	}
}

// NewWriterSink creates a WriterSink. Unknown formats fall back to text.
func NewWriterSink(w io.Writer, format Format) *WriterSink {
	s := &WriterSink{format: format, w: w}
	switch format {
	case FormatJSON:
		s.jsonEnc = json.NewEncoder(w)
	case FormatYAML:
		s.yamlEnc = yaml.NewEncoder(w)
		s.yamlEnc.SetIndent(2)
	default:
		s.format = FormatText
	}
	return s
}

// Format returns the effective output format.
func (s *WriterSink) Format() Format { return s.format }

// OnConflict implements conflict.Subscriber.
func (s *WriterSink) OnConflict(r *conflict.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(r)
}

// WriteAll encodes records in order, stopping at the first error.
func (s *WriterSink) WriteAll(records []*conflict.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if err := s.write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the YAML stream, if any.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.yamlEnc != nil {
		return s.yamlEnc.Close()
	}
	return nil
}

func (s *WriterSink) write(r *conflict.Record) error {
	var err error
	switch s.format {
	case FormatJSON:
		err = s.jsonEnc.Encode(r)
	case FormatYAML:
		err = s.yamlEnc.Encode(r)
	default:
		_, err = fmt.Fprintln(s.w, r.String())
	}
	if err != nil {
		return fmt.Errorf("write conflict record: %w", err)
	}
	return nil
}
