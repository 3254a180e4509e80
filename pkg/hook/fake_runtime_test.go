// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"context"
	"errors"
	"sync"

	"github.com/weakres/weakres/pkg/modident"
)

type (
	fakeModule struct {
		id modident.Identity
	}

	// fakeRuntime records handler registrations and serves a fixed module list.
	fakeRuntime struct {
		mu       sync.Mutex
		handlers []Handler
		adds     int
		removes  int
		// doubleAdds counts registrations made while a handler was already registered.
		doubleAdds int
		addErr     error
		modules    []Module
		loadErr    error
		// onAdd runs inside AddResolveHandler, after the handler is stored.
		onAdd func(h Handler)
		// onLoaded runs inside LoadedModules before the list is returned.
		onLoaded func(ctx context.Context)
	}
)

func (m fakeModule) Identity() modident.Identity { return m.id }

func newFakeRuntime(fullNames ...string) *fakeRuntime {
	rt := &fakeRuntime{}
	for _, n := range fullNames {
		rt.modules = append(rt.modules, fakeModule{id: modident.MustParse(n)})
	}
	return rt
}

func (rt *fakeRuntime) AddResolveHandler(h Handler) error {
	rt.mu.Lock()
	if rt.addErr != nil {
		rt.mu.Unlock()
		return rt.addErr
	}
	if len(rt.handlers) > 0 {
		rt.doubleAdds++
	}
	rt.handlers = append(rt.handlers, h)
	rt.adds++
	onAdd := rt.onAdd
	rt.mu.Unlock()

	if onAdd != nil {
		onAdd(h)
	}
	return nil
}

func (rt *fakeRuntime) RemoveResolveHandler(h Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i, existing := range rt.handlers {
		if existing == h {
			rt.handlers = append(rt.handlers[:i], rt.handlers[i+1:]...)
			rt.removes++
			return
		}
	}
}

func (rt *fakeRuntime) LoadedModules(ctx context.Context) ([]Module, error) {
	rt.mu.Lock()
	loadErr, onLoaded := rt.loadErr, rt.onLoaded
	mods := append([]Module(nil), rt.modules...)
	rt.mu.Unlock()

	if onLoaded != nil {
		onLoaded(ctx)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return mods, nil
}

func (rt *fakeRuntime) registered() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.handlers)
}

func (rt *fakeRuntime) counts() (adds, removes, doubleAdds int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.adds, rt.removes, rt.doubleAdds
}

var errRuntimeDown = errors.New("runtime down")
