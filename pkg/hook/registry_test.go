// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"errors"
	"sync"
	"testing"

	"github.com/weakres/weakres/internal/testutil"

	"golang.org/x/sync/errgroup"
)

func newTestRegistry(rt Runtime, opts ...Option) *Registry {
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	return New(rt, opts...)
}

func TestRegistry_NestedScopes(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime()
	r := newTestRegistry(rt)

	if r.Installed() || rt.registered() != 0 {
		t.Fatal("a new registry must not be installed")
	}

	outer, err := r.Install()
	if err != nil {
		t.Fatalf("Install() unexpected error: %v", err)
	}
	inner, err := r.Install()
	if err != nil {
		t.Fatalf("Install() unexpected error: %v", err)
	}
	if got := r.CurrentInstallCount(); got != 2 {
		t.Errorf("CurrentInstallCount() = %d, want 2", got)
	}
	if adds, _, _ := rt.counts(); adds != 1 {
		t.Errorf("handler registered %d times, want 1", adds)
	}

	testutil.MustClose(t, outer)
	if !r.Installed() || rt.registered() != 1 {
		t.Error("closing one of two scopes must keep the handler registered")
	}

	testutil.MustClose(t, inner)
	if r.Installed() || rt.registered() != 0 {
		t.Error("closing the last scope must unregister the handler")
	}
	if _, removes, _ := rt.counts(); removes != 1 {
		t.Errorf("handler removed %d times, want 1", removes)
	}
}

func TestRegistry_UninstallIsIdempotent(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime()
	r := newTestRegistry(rt)

	a, _ := r.Install()
	b, _ := r.Install()

	r.Uninstall(a)
	r.Uninstall(a)
	testutil.MustClose(t, a)
	if got := r.CurrentInstallCount(); got != 1 {
		t.Fatalf("CurrentInstallCount() after double uninstall = %d, want 1", got)
	}
	if !a.Released() || b.Released() {
		t.Errorf("Released() a=%v b=%v, want true/false", a.Released(), b.Released())
	}

	r.Uninstall(b)
	r.Uninstall(b)
	r.Uninstall(nil)
	if got := r.CurrentInstallCount(); got != 0 {
		t.Errorf("CurrentInstallCount() = %d, want 0", got)
	}
	if adds, removes, _ := rt.counts(); adds != 1 || removes != 1 {
		t.Errorf("adds=%d removes=%d, want 1/1", adds, removes)
	}
}

func TestRegistry_ForeignScopeIsIgnored(t *testing.T) {
	t.Parallel()

	r1 := newTestRegistry(newFakeRuntime())
	r2 := newTestRegistry(newFakeRuntime())

	s1, _ := r1.Install()
	if _, err := r2.Install(); err != nil {
		t.Fatalf("Install() unexpected error: %v", err)
	}

	r2.Uninstall(s1)
	if r2.CurrentInstallCount() != 1 || r1.CurrentInstallCount() != 1 || s1.Released() {
		t.Error("uninstalling a scope on the wrong registry must be a no-op")
	}
}

func TestRegistry_RegistrationFailureRollsBack(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime()
	rt.addErr = errRuntimeDown
	r := newTestRegistry(rt)

	s, err := r.Install()
	if err == nil {
		t.Fatal("Install() should fail when the runtime rejects the handler")
	}
	if s != nil {
		t.Error("Install() should not return a scope on failure")
	}
	if !errors.Is(err, ErrRegistrationFailed) || !errors.Is(err, errRuntimeDown) {
		t.Errorf("error = %v, want ErrRegistrationFailed wrapping the runtime error", err)
	}
	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Errorf("error should be *RegistrationError, got %T", err)
	}
	if got := r.CurrentInstallCount(); got != 0 {
		t.Errorf("CurrentInstallCount() after failed Install = %d, want 0", got)
	}

	rt.mu.Lock()
	rt.addErr = nil
	rt.mu.Unlock()

	s, err = r.Install()
	if err != nil {
		t.Fatalf("Install() after recovery unexpected error: %v", err)
	}
	testutil.MustClose(t, s)
	if adds, removes, _ := rt.counts(); adds != 1 || removes != 1 {
		t.Errorf("adds=%d removes=%d, want 1/1", adds, removes)
	}
}

func TestRegistry_ConcurrentInstallUninstall(t *testing.T) {
	t.Parallel()

	const n = 200

	rt := newFakeRuntime()
	r := newTestRegistry(rt)

	scopes := make(chan *Scope, n)
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			s, err := r.Install()
			if err != nil {
				return err
			}
			scopes <- s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Install() unexpected error: %v", err)
	}
	close(scopes)

	if got := r.CurrentInstallCount(); got != n {
		t.Fatalf("CurrentInstallCount() = %d, want %d", got, n)
	}

	var wg sync.WaitGroup
	for s := range scopes {
		wg.Go(func() {
			s.Close()
			s.Close()
		})
	}
	wg.Wait()

	if got := r.CurrentInstallCount(); got != 0 {
		t.Errorf("CurrentInstallCount() = %d, want 0", got)
	}
	adds, removes, doubleAdds := rt.counts()
	if adds-removes != 0 || doubleAdds != 0 || rt.registered() != 0 {
		t.Errorf("adds=%d removes=%d doubleAdds=%d registered=%d", adds, removes, doubleAdds, rt.registered())
	}
}

func TestRegistry_InterleavedChurn(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime()
	r := newTestRegistry(rt)

	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			for range 250 {
				s, err := r.Install()
				if err != nil {
					return err
				}
				r.Uninstall(s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("churn failed: %v", err)
	}

	adds, removes, doubleAdds := rt.counts()
	if r.CurrentInstallCount() != 0 || adds != removes || doubleAdds != 0 {
		t.Errorf("count=%d adds=%d removes=%d doubleAdds=%d", r.CurrentInstallCount(), adds, removes, doubleAdds)
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Not parallel: mutates the process-wide registry.
	prev := SetDefault(nil)
	t.Cleanup(func() { SetDefault(prev) })

	if _, err := Install(); !errors.Is(err, ErrNoDefaultRegistry) {
		t.Fatalf("Install() without default error = %v, want ErrNoDefaultRegistry", err)
	}

	r := newTestRegistry(newFakeRuntime())
	SetDefault(r)
	if Default() != r {
		t.Fatal("Default() should return the registry passed to SetDefault")
	}

	s, err := Install()
	if err != nil {
		t.Fatalf("Install() unexpected error: %v", err)
	}
	if r.CurrentInstallCount() != 1 {
		t.Errorf("CurrentInstallCount() = %d, want 1", r.CurrentInstallCount())
	}
	Uninstall(s)
	Uninstall(s)
	Uninstall(nil)
	if r.CurrentInstallCount() != 0 {
		t.Errorf("CurrentInstallCount() = %d, want 0", r.CurrentInstallCount())
	}
}
