package derive

import (
	"sync"

	"hostkit/pkg/hosttypes"
)

// Instance is an object created from a Class.
type Instance struct {
	class  *Class
	mu     sync.RWMutex
	fields map[string]any
}

// Class returns the class the instance was created from.
func (i *Instance) Class() *Class { return i.class }

// Get returns an instance field.
func (i *Instance) Get(key string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.fields[key]
	return v, ok
}

// Set stores an instance field.
func (i *Instance) Set(key string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fields[key] = value
}

// Has reports whether the method is reachable through the prototype chain.
func (i *Instance) Has(method string) bool {
	_, ok := i.class.Prototype().Lookup(method)
	return ok
}

// Call invokes method through the prototype chain.
func (i *Instance) Call(method string, args ...any) (any, error) {
	m, ok := i.class.Prototype().Lookup(method)
	if !ok {
		return nil, hosttypes.NewError("derive.Call", hosttypes.KindNotFound, "%s has no method %q", i.class.Name(), method)
	}
	return m(i, args...)
}

// CallSuper invokes method starting at the class's super prototype.
func (i *Instance) CallSuper(method string, args ...any) (any, error) {
	return i.CallFrom(i.class.Super(), method, args...)
}

// CallFrom invokes method starting the lookup at proto. Methods that need
// their own parent's implementation pass Class.Super of the defining class.
func (i *Instance) CallFrom(proto *Prototype, method string, args ...any) (any, error) {
	if proto == nil {
		return nil, hosttypes.NewError("derive.CallSuper", hosttypes.KindNotFound, "%s has no super prototype", i.class.Name())
	}
	m, ok := proto.Lookup(method)
	if !ok {
		return nil, hosttypes.NewError("derive.CallSuper", hosttypes.KindNotFound, "no super method %q", method)
	}
	return m(i, args...)
}

// InstanceOf reports whether c's prototype is on the instance's prototype chain.
func (i *Instance) InstanceOf(c *Class) bool {
	if c == nil {
		return false
	}
	target := c.Prototype()
	for p := i.class.Prototype(); p != nil; p = p.Parent() {
		if p == target {
			return true
		}
	}
	return false
}
