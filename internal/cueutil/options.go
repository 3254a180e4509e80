// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds the size of CUE files accepted by Unify and Decode.
const DefaultMaxFileSize int64 = 4 << 20

type (
	// Option configures Unify and Decode.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int64
		concrete    bool
	}
)

// WithFilename sets the file name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(o *options) { o.maxFileSize = n }
}

// WithConcrete controls whether every value must be concrete after unification.
// Config files with unset optional settings need false.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

func collect(opts []Option) options {
	o := options{filename: "<input>", maxFileSize: DefaultMaxFileSize, concrete: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.filename == "" {
		o.filename = "<input>"
	}
	return o
}
