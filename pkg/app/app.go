package app

import (
	"fmt"
	"sync"
)

// ID identifies a registered application.
type ID struct {
	Num  uint16
	Name string
}

func (id ID) String() string {
	return fmt.Sprintf("%d:%s", id.Num, id.Name)
}

type Registry struct {
	mu   sync.Mutex
	ids  map[string]ID
	next uint16
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]ID), next: 1}
}

// Register returns the ID for name, allocating one on first use. Repeated
// registration returns the same ID.
func (r *Registry) Register(name string) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[name]; ok {
		return id
	}

	id := ID{Num: r.next, Name: name}
	r.next++
	r.ids[name] = id
	return id
}

func (r *Registry) Get(name string) (ID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.ids[name]
	return id, ok
}
