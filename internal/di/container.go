// Package di is a small service container with lazily built singletons and
// typed tokens.
package di

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container registers services and resolves them.
type Container interface {
	ServiceRegistry
	Register(name string, v any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type entry struct {
	factory func(ServiceRegistry) any
	value   any
	done    chan struct{} // closed once value is set
	started bool
}

type container struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewContainer returns an empty container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

// Register stores a ready value under name, replacing any previous entry.
func (c *container) Register(name string, v any) {
	done := make(chan struct{})
	close(done)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{value: v, done: done, started: true}
}

// RegisterFactory stores a constructor run once, on first Get.
func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{factory: factory, done: make(chan struct{})}
}

// Get resolves name. It panics on unknown names and on dependency cycles,
// both of which are wiring bugs.
func (c *container) Get(name string) any {
	return c.resolve(name, nil)
}

func (c *container) resolve(name string, chain []string) any {
	if slices.Contains(chain, name) {
		panic(fmt.Sprintf("di: dependency cycle %s -> %s", strings.Join(chain, " -> "), name))
	}

	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: service %q not registered", name))
	}
	if e.started {
		c.mu.Unlock()
		// Another goroutine may still be building it.
		<-e.done
		return e.value
	}
	e.started = true
	c.mu.Unlock()

	e.value = e.factory(&resolver{c: c, chain: append(slices.Clone(chain), name)})
	close(e.done)
	return e.value
}

// resolver is the registry handed to factories; it remembers the build chain.
type resolver struct {
	c     *container
	chain []string
}

func (r *resolver) Get(name string) any {
	return r.c.resolve(name, r.chain)
}
