// Package services provides the native host: a component table plus Go
// implementations of every hostkit capability.
package services

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"hostkit/pkg/hosttypes"
)

// Factory creates a fresh, initialized component for CreateInstance.
type Factory func() (hosttypes.Service, error)

// Aliver is implemented by services that can stop being usable, such as a
// thread manager after shutdown.
type Aliver interface {
	Alive() bool
}

type component struct {
	service    hosttypes.Service
	factory    Factory
	interfaces map[string]bool
}

// Registry is the native component table. It implements hosttypes.Host.
//
// Shared services are tracked by handle. Objects from CreateInstance are
// tracked by their dynamic type only, so the table does not grow with the
// number of instances and discarded instances can be collected.
type Registry struct {
	mu         sync.RWMutex
	components map[string]*component
	handles    map[any]*component
	instances  map[reflect.Type]*component
}

// NewRegistry creates an empty component table.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]*component),
		handles:    make(map[any]*component),
		instances:  make(map[reflect.Type]*component),
	}
}

// RegisterService binds service to componentID, answering the given interfaces.
// It returns an error if the component ID is already registered.
func (r *Registry) RegisterService(componentID string, service hosttypes.Service, interfaces ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[componentID]; exists {
		return fmt.Errorf("service %s already registered", componentID)
	}

	c := &component{service: service, interfaces: interfaceSet(interfaces)}
	r.components[componentID] = c
	r.handles[service] = c
	return nil
}

// RegisterFactory binds a factory to componentID. GetService lazily creates
// one shared instance; CreateInstance creates a new one on every call.
func (r *Registry) RegisterFactory(componentID string, factory Factory, interfaces ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[componentID]; exists {
		return fmt.Errorf("service %s already registered", componentID)
	}

	r.components[componentID] = &component{factory: factory, interfaces: interfaceSet(interfaces)}
	return nil
}

// Unregister removes a component. Handles obtained earlier stop answering the liveness probe.
func (r *Registry) Unregister(componentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.components[componentID]
	if !ok {
		return
	}
	delete(r.components, componentID)
	for h, hc := range r.handles {
		if hc == c {
			delete(r.handles, h)
		}
	}
	for t, tc := range r.instances {
		if tc == c {
			delete(r.instances, t)
		}
	}
}

// InitializeAll initializes all registered services.
func (r *Registry) InitializeAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.components))
	for id := range r.components {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		c := r.components[id]
		if c.service == nil {
			continue
		}
		if err := c.service.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", id, err)
		}
	}
	return nil
}

// GetAllServices returns a copy of all instantiated services keyed by component ID.
func (r *Registry) GetAllServices() map[string]hosttypes.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]hosttypes.Service)
	for id, c := range r.components {
		if c.service != nil {
			result[id] = c.service
		}
	}
	return result
}

// GetService implements hosttypes.Host.
func (r *Registry) GetService(_ context.Context, componentID, interfaceID string) (hosttypes.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.components[componentID]
	if !exists {
		return nil, fmt.Errorf("service %s not found", componentID)
	}
	if !c.answers(interfaceID) {
		return nil, fmt.Errorf("service %s does not implement %s", componentID, interfaceID)
	}
	if c.service == nil {
		s, err := c.factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create service %s: %w", componentID, err)
		}
		c.service = s
		r.handles[s] = c
	}
	return c.service, nil
}

// CreateInstance implements hosttypes.Host.
func (r *Registry) CreateInstance(_ context.Context, componentID, interfaceID string) (hosttypes.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.components[componentID]
	if !exists {
		return nil, fmt.Errorf("service %s not found", componentID)
	}
	if !c.answers(interfaceID) {
		return nil, fmt.Errorf("service %s does not implement %s", componentID, interfaceID)
	}
	if c.factory == nil {
		return nil, fmt.Errorf("service %s cannot be instantiated", componentID)
	}
	s, err := c.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create service %s: %w", componentID, err)
	}
	r.instances[reflect.TypeOf(s)] = c
	return s, nil
}

// QueryInterface implements hosttypes.Host.
func (r *Registry) QueryInterface(_ context.Context, h hosttypes.Handle, interfaceID string) (hosttypes.Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, known := r.handles[h]
	if !known {
		c, known = r.instances[reflect.TypeOf(h)]
	}
	if !known {
		return nil, fmt.Errorf("handle %T is not owned by this host", h)
	}
	if a, ok := h.(Aliver); ok && !a.Alive() {
		return nil, fmt.Errorf("handle %T is no longer alive", h)
	}
	if !c.answers(interfaceID) {
		return nil, fmt.Errorf("handle %T does not implement %s", h, interfaceID)
	}
	return h, nil
}

func (c *component) answers(interfaceID string) bool {
	return interfaceID == hosttypes.InterfaceSupports || c.interfaces[interfaceID]
}

func interfaceSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
