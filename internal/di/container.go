// Package di provides a small service container with typed tokens,
// used to wire bounded-context modules together at startup.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the service registered under name, resolving a factory
	// on first access. It panics if the name is unknown.
	Get(name string) any
}

// Container is the write side used during module registration.
type Container interface {
	ServiceRegistry

	// Register stores an already-constructed value under name.
	Register(name string, value any)

	// RegisterFactory stores a lazily-resolved singleton. The factory runs
	// at most once, on first Get.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type entry struct {
	once    sync.Once
	factory func(ServiceRegistry) any
	value   any
}

type container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewContainer creates an empty Container.
func NewContainer() Container {
	return &container{
		entries: make(map[string]*entry),
	}
}

func (c *container) Register(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[name]; exists {
		panic(fmt.Sprintf("di: service %q already registered", name))
	}
	e := &entry{value: value}
	e.once.Do(func() {})
	c.entries[name] = e
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[name]; exists {
		panic(fmt.Sprintf("di: service %q already registered", name))
	}
	c.entries[name] = &entry{factory: factory}
}

func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// Resolve outside the container lock so factories may Get their own
	// dependencies without deadlocking.
	e.once.Do(func() {
		e.value = e.factory(c)
	})
	return e.value
}
