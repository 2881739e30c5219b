package component

import (
	"context"
	"fmt"
	"sync"
)

type Orchestrator struct {
	components []Component
	started    int
	mu         sync.Mutex
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		components: make([]Component, 0),
	}
}

func (o *Orchestrator) Register(comp Component) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.components = append(o.components, comp)
}

func (o *Orchestrator) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	names := make([]string, 0, len(o.components))
	for _, comp := range o.components {
		names = append(names, comp.Name())
	}
	return names
}

// Start starts components in registration order. When one fails, the ones
// already started are stopped in reverse order before the error is returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, comp := range o.components {
		if err := comp.Start(ctx); err != nil {
			o.started = i
			o.stopLocked(ctx)
			return fmt.Errorf("failed to start %s: %w", comp.Name(), err)
		}
	}
	o.started = len(o.components)
	return nil
}

func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopLocked(ctx)
}

func (o *Orchestrator) stopLocked(ctx context.Context) error {
	var firstErr error
	for i := o.started - 1; i >= 0; i-- {
		comp := o.components[i]
		if err := comp.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop %s: %w", comp.Name(), err)
		}
	}
	o.started = 0
	return firstErr
}
