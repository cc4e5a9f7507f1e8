// Package derive provides prototype style classes with explicit inheritance
// and an opt-in singleton accessor.
package derive

import (
	"sort"
	"sync"

	"hostkit/pkg/hosttypes"
)

// Method is a prototype method. self is the receiving instance.
type Method func(self *Instance, args ...any) (any, error)

// InitFunc initializes a freshly created instance.
type InitFunc func(self *Instance, args ...any)

// Prototype holds a method table and delegates missing names to its parent.
type Prototype struct {
	mu          sync.RWMutex
	constructor *Class
	methods     map[string]Method
	parent      *Prototype
}

func newPrototype(owner *Class, parent *Prototype) *Prototype {
	return &Prototype{constructor: owner, methods: make(map[string]Method), parent: parent}
}

// Constructor returns the class this prototype belongs to.
func (p *Prototype) Constructor() *Class {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.constructor
}

// Parent returns the prototype lookups fall back to, or nil.
func (p *Prototype) Parent() *Prototype {
	return p.parent
}

// Define sets an own method.
func (p *Prototype) Define(name string, m Method) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.methods[name] = m
}

// Lookup finds name on this prototype or the nearest ancestor.
func (p *Prototype) Lookup(name string) (Method, bool) {
	for cur := p; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		m, ok := cur.methods[name]
		cur.mu.RUnlock()
		if ok {
			return m, true
		}
	}
	return nil, false
}

// HasOwn reports whether name is defined on this prototype itself.
func (p *Prototype) HasOwn(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.methods[name]
	return ok
}

// MethodNames lists every reachable method name, sorted.
func (p *Prototype) MethodNames() []string {
	seen := make(map[string]struct{})
	for cur := p; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		for name := range cur.methods {
			seen[name] = struct{}{}
		}
		cur.mu.RUnlock()
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Class is a constructor with a prototype.
type Class struct {
	mu     sync.RWMutex
	name   string
	init   InitFunc
	proto  *Prototype
	super  *Prototype
	parent *Class
	single *Singleton[*Instance]
}

// NewClass creates a root class. init may be nil.
func NewClass(name string, init InitFunc) *Class {
	c := &Class{name: name, init: init}
	c.proto = newPrototype(c, nil)
	return c
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Prototype returns the current prototype.
func (c *Class) Prototype() *Prototype {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proto
}

// Super returns the parent's prototype, nil for root classes.
func (c *Class) Super() *Prototype {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.super
}

// Parent returns the parent class, nil for root classes.
func (c *Class) Parent() *Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.parent
}

// Define adds a method to the class prototype.
func (c *Class) Define(name string, m Method) *Class {
	c.Prototype().Define(name, m)
	return c
}

// New creates an instance and runs the class initializer.
func (c *Class) New(args ...any) *Instance {
	inst := &Instance{class: c, fields: make(map[string]any)}
	c.Construct(inst, args...)
	return inst
}

// Construct runs this class's initializer on self. Child initializers call
// it on their parent to chain construction.
func (c *Class) Construct(self *Instance, args ...any) {
	c.mu.RLock()
	init := c.init
	c.mu.RUnlock()
	if init != nil {
		init(self, args...)
	}
}

// IsSingleton reports whether the class has a singleton accessor.
func (c *Class) IsSingleton() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.single != nil
}

// GetInstance returns the shared instance, creating it on first use.
// It returns nil for classes that are not singletons.
func (c *Class) GetInstance() *Instance {
	c.mu.RLock()
	s := c.single
	c.mu.RUnlock()
	if s == nil {
		return nil
	}
	return s.Get()
}

// ResetInstance drops the shared instance so the next GetInstance builds a new one.
func (c *Class) ResetInstance() {
	c.mu.RLock()
	s := c.single
	c.mu.RUnlock()
	if s != nil {
		s.Reset()
	}
}

// MakeSingleton attaches a lazily created shared instance to c.
func MakeSingleton(c *Class) *Class {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.single == nil {
		c.single = NewSingleton(func() *Instance { return c.New() })
	}
	return c
}

// LinkOption customizes LinkPrototype.
type LinkOption func(*linkConfig)

type linkConfig struct {
	inheritSingleton bool
}

// WithInheritedSingleton makes the child a singleton when the parent is one.
func WithInheritedSingleton() LinkOption {
	return func(cfg *linkConfig) { cfg.inheritSingleton = true }
}

// LinkPrototype makes child inherit from parent. The child gets a fresh
// prototype that delegates to parent's prototype; methods already defined on
// the child are carried over. The parent is never mutated.
func LinkPrototype(child, parent *Class, opts ...LinkOption) error {
	if child == nil || parent == nil {
		return hosttypes.NewError("derive.LinkPrototype", hosttypes.KindInvalidArgument, "child and parent are required")
	}
	if child == parent || parent.inheritsFrom(child) {
		return hosttypes.NewError("derive.LinkPrototype", hosttypes.KindInvalidArgument, "%s cannot inherit from %s: cycle", child.name, parent.name)
	}

	cfg := linkConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	parentProto := parent.Prototype()

	child.mu.Lock()
	old := child.proto
	proto := newPrototype(child, parentProto)
	if old != nil {
		old.mu.RLock()
		for name, m := range old.methods {
			proto.methods[name] = m
		}
		old.mu.RUnlock()
	}
	child.proto = proto
	child.super = parentProto
	child.parent = parent
	child.mu.Unlock()

	if cfg.inheritSingleton && parent.IsSingleton() {
		MakeSingleton(child)
	}
	return nil
}

func (c *Class) inheritsFrom(other *Class) bool {
	for cur := c.Parent(); cur != nil; cur = cur.Parent() {
		if cur == other {
			return true
		}
	}
	return false
}
