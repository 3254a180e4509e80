// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/weakres/weakres/pkg/conflict"
	"github.com/weakres/weakres/pkg/weakmatch"

	"github.com/google/uuid"
)

type (
	// Registry coordinates install scopes and the runtime registration of its handler.
	// It is safe for concurrent use.
	Registry struct {
		rt       Runtime
		matcher  *weakmatch.Matcher
		recorder *conflict.Recorder
		clock    Clock
		logger   *slog.Logger
		metrics  Metrics
		handler  *resolveHandler

		// mu serializes install count transitions together with runtime
		// (de)registration. The resolve handler never acquires it.
		mu sync.Mutex
		// count is written only while holding mu; readers load it atomically so the
		// handler can snapshot it without contending with Install/Uninstall.
		count atomic.Int64
	}

	// Scope is the handle returned by Install. Closing it releases that one install.
	Scope struct {
		id       string
		registry *Registry
		released atomic.Bool
	}

	// Option configures a Registry.
	Option func(*Registry)
)

// WithMatcher sets the weak matcher. Defaults to weakmatch.NewMatcher().
func WithMatcher(m *weakmatch.Matcher) Option {
	return func(r *Registry) {
		if m != nil {
			r.matcher = m
		}
	}
}

// WithRecorder sets the recorder that receives conflicts. Defaults to an unbounded recorder.
func WithRecorder(rec *conflict.Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithClock sets the clock used for conflict timestamps. Readings are converted to UTC.
func WithClock(c Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates a Registry bound to rt. Nothing is registered until Install is called.
func New(rt Runtime, opts ...Option) *Registry {
	r := &Registry{
		rt:      rt,
		matcher: weakmatch.NewMatcher(),
		clock:   systemClock{},
		logger:  slog.Default(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.recorder == nil {
		r.recorder = conflict.NewRecorder(conflict.WithRecorderLogger(r.logger))
	}
	r.handler = &resolveHandler{registry: r}
	return r
}

// Install opens an install scope. The first open scope registers the handler with
// the runtime; if that registration fails the error is returned and the install
// count is left unchanged.
func (r *Registry) Install() (*Scope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.count.Load() + 1
	if next == 1 {
		if err := r.rt.AddResolveHandler(r.handler); err != nil {
			r.metrics.ObserveRegistrationFailure()
			r.logger.Warn("resolve handler registration failed", "error", err)
			return nil, &RegistrationError{Cause: err}
		}
		r.logger.Debug("resolve handler registered")
	}
	r.count.Store(next)
	r.metrics.SetInstallCount(int(next))

	s := &Scope{id: uuid.NewString(), registry: r}
	r.logger.Debug("install scope opened", "scope", s.id, "install_count", next)
	return s, nil
}

// Uninstall releases s. Releasing a scope twice, a nil scope, or a scope from another
// registry is a no-op. Closing the last open scope unregisters the handler.
func (r *Registry) Uninstall(s *Scope) {
	if s == nil || s.registry != r || s.released.Swap(true) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.count.Load() - 1
	r.count.Store(next)
	r.metrics.SetInstallCount(int(next))
	if next == 0 {
		r.rt.RemoveResolveHandler(r.handler)
		r.logger.Debug("resolve handler unregistered")
	}
	r.logger.Debug("install scope closed", "scope", s.id, "install_count", next)
}

// CurrentInstallCount returns the number of open scopes. Under concurrent
// Install/Uninstall the value may be stale as soon as it is returned; use
// conflict.Record.InstallCount to correlate with a specific resolution.
func (r *Registry) CurrentInstallCount() int {
	return int(r.count.Load())
}

// Installed reports whether at least one scope is open.
func (r *Registry) Installed() bool {
	return r.CurrentInstallCount() > 0
}

// Handler returns the handler the registry registers with its runtime.
func (r *Registry) Handler() Handler { return r.handler }

// Recorder returns the recorder receiving this registry's conflicts.
func (r *Registry) Recorder() *conflict.Recorder { return r.recorder }

// Conflicts returns every retained conflict in capture order.
func (r *Registry) Conflicts() []*conflict.Record { return r.recorder.All() }

// Subscribe registers s for conflicts captured from now on.
func (r *Registry) Subscribe(s conflict.Subscriber) *conflict.Subscription {
	return r.recorder.Subscribe(s)
}

// ID returns the scope identifier used in log output.
func (s *Scope) ID() string { return s.id }

// Released reports whether the scope has been closed.
func (s *Scope) Released() bool { return s.released.Load() }

// Close releases the scope. It is idempotent and always returns nil, which makes it
// suitable for defer and io.Closer call sites.
func (s *Scope) Close() error {
	s.registry.Uninstall(s)
	return nil
}
