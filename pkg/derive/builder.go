package derive

// Builder assembles a class step by step.
//
//	Child := derive.Derive("Child").From(Parent).Method("greet", greet).Build()
type Builder struct {
	name      string
	parent    *Class
	linkOpts  []LinkOption
	init      InitFunc
	methods   map[string]Method
	singleton bool
}

// Derive starts a class definition.
func Derive(name string) *Builder {
	return &Builder{name: name, methods: make(map[string]Method)}
}

// From sets the parent class.
func (b *Builder) From(parent *Class, opts ...LinkOption) *Builder {
	b.parent = parent
	b.linkOpts = opts
	return b
}

// Init sets the initializer.
func (b *Builder) Init(fn InitFunc) *Builder {
	b.init = fn
	return b
}

// Method adds a method to the class prototype.
func (b *Builder) Method(name string, m Method) *Builder {
	b.methods[name] = m
	return b
}

// Singleton makes the class a singleton regardless of its parent.
func (b *Builder) Singleton() *Builder {
	b.singleton = true
	return b
}

// Build creates the class. It returns an error only when linking fails.
func (b *Builder) Build() (*Class, error) {
	c := NewClass(b.name, b.init)
	for name, m := range b.methods {
		c.proto.Define(name, m)
	}
	if b.parent != nil {
		if err := LinkPrototype(c, b.parent, b.linkOpts...); err != nil {
			return nil, err
		}
	}
	if b.singleton {
		MakeSingleton(c)
	}
	return c, nil
}

// MustBuild is Build for package level class definitions.
func (b *Builder) MustBuild() *Class {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
