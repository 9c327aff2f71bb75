package layout

import (
	"slices"
	"sync"

	"docklayout/internal/config"
)

// ComponentFactory builds the application component for a container.
// state is the component's persisted state.
type ComponentFactory func(c *Container, state any) (any, error)

type registration struct {
	factory ComponentFactory
	virtual bool
}

// Registry is a Binder that looks component types up by name.
type Registry struct {
	mu       sync.RWMutex
	regs     map[string]registration
	fallback ComponentFactory
}

var _ Binder = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{regs: make(map[string]registration)}
}

// Register adds a factory for componentType.
func (r *Registry) Register(componentType string, f ComponentFactory) error {
	return r.register(componentType, f, false)
}

// RegisterVirtual adds a factory whose components implement
// VirtualComponent.
func (r *Registry) RegisterVirtual(componentType string, f ComponentFactory) error {
	return r.register(componentType, f, true)
}

func (r *Registry) register(componentType string, f ComponentFactory, virtual bool) error {
	if f == nil {
		return &BindError{ComponentType: componentType, Message: config.Text(config.TextPleaseRegisterAConstructor)}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[componentType]; ok {
		return &BindError{ComponentType: componentType, Message: config.Text(config.TextComponentIsAlreadyRegistered)}
	}
	r.regs[componentType] = registration{factory: f, virtual: virtual}
	return nil
}

// Unregister removes componentType.
func (r *Registry) Unregister(componentType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.regs, componentType)
}

// SetFallback sets the factory used for unknown component types.
func (r *Registry) SetFallback(f ComponentFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = f
}

// Types returns the registered component types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.regs))
	for t := range r.regs {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Bind implements Binder.
func (r *Registry) Bind(c *Container, cfg config.ResolvedItemConfig) (BoundComponent, error) {
	r.mu.RLock()
	reg, ok := r.regs[cfg.ComponentType]
	fallback := r.fallback
	r.mu.RUnlock()
	if !ok {
		if fallback == nil {
			return BoundComponent{}, &BindError{ComponentType: cfg.ComponentType, Message: config.Text(config.TextComponentTypeNotRegistered)}
		}
		reg = registration{factory: fallback}
	}
	comp, err := reg.factory(c, cfg.ComponentState)
	if err != nil {
		return BoundComponent{}, &BindError{ComponentType: cfg.ComponentType, Message: err.Error()}
	}
	return BoundComponent{Component: comp, Virtual: reg.virtual}, nil
}

// Unbind implements Binder.
func (r *Registry) Unbind(c *Container) {
	if rel, ok := c.Component().(Releaser); ok {
		rel.Release()
	}
}
