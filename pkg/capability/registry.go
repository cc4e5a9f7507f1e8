// Package capability resolves abbreviated capability names to live host handles
// and caches them for the lifetime of a Registry.
package capability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"hostkit/pkg/hosttypes"
)

// Registry maps capabilities to descriptors and caches live handles.
type Registry struct {
	host   hosttypes.Host
	table  map[hosttypes.Capability]hosttypes.Descriptor
	logger *log.Logger

	mu    sync.Mutex
	cache map[hosttypes.Capability]hosttypes.Handle
}

// Option configures a Registry.
type Option func(*options) error

type options struct {
	overrides map[hosttypes.Capability]hosttypes.Descriptor
	tableFile string
	logger    *log.Logger
}

// WithDescriptors overrides individual descriptor entries.
func WithDescriptors(table map[hosttypes.Capability]hosttypes.Descriptor) Option {
	return func(o *options) error {
		for c, d := range table {
			o.overrides[c] = d
		}
		return nil
	}
}

// WithTableFile loads descriptor overrides from a YAML file of the form
//
//	hash:
//	  component: "@vendor/hash;1"
//	  interface: "vendor.Hash"
//
// or, when the file ends in .toml, the TOML equivalent
//
//	[hash]
//	component = "@vendor/hash;1"
//	interface = "vendor.Hash"
func WithTableFile(path string) Option {
	return func(o *options) error {
		o.tableFile = path
		return nil
	}
}

// WithLogger sets the logger used for passthrough failures.
func WithLogger(l *log.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

// NewRegistry creates a registry bound to host.
func NewRegistry(host hosttypes.Host, opts ...Option) (*Registry, error) {
	if host == nil {
		return nil, hosttypes.NewError("capability.NewRegistry", hosttypes.KindInvalidArgument, "host is required")
	}

	o := &options{overrides: make(map[hosttypes.Capability]hosttypes.Descriptor)}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	table := hosttypes.DefaultDescriptors()
	if o.tableFile != "" {
		fromFile, err := LoadTable(o.tableFile)
		if err != nil {
			return nil, err
		}
		for c, d := range fromFile {
			table[c] = d
		}
	}
	for c, d := range o.overrides {
		if d.IsZero() {
			delete(table, c)
			continue
		}
		table[c] = d
	}

	l := o.logger
	if l == nil {
		l = log.New(os.Stderr)
		l.SetPrefix("Registry ")
	}

	return &Registry{
		host:   host,
		table:  table,
		logger: l,
		cache:  make(map[hosttypes.Capability]hosttypes.Handle),
	}, nil
}

// LoadTable reads a descriptor table keyed by abbreviated capability name.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func LoadTable(path string) (map[hosttypes.Capability]hosttypes.Descriptor, error) {
	const op = "capability.LoadTable"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, hosttypes.WrapError(op, hosttypes.KindNotFound, err).WithPath(path)
	}

	var raw map[string]hosttypes.Descriptor
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, hosttypes.WrapError(op, hosttypes.KindInvalidArgument, err).WithPath(path)
	}

	table := make(map[hosttypes.Capability]hosttypes.Descriptor, len(raw))
	for name, d := range raw {
		c, err := hosttypes.ParseCapability(name)
		if err != nil {
			return nil, hosttypes.WrapError(op, hosttypes.KindInvalidArgument, err).WithPath(path)
		}
		table[c] = d
	}
	return table, nil
}

// Host returns the underlying host.
func (r *Registry) Host() hosttypes.Host {
	return r.host
}

// Descriptor returns the descriptor for c.
func (r *Registry) Descriptor(c hosttypes.Capability) (hosttypes.Descriptor, bool) {
	d, ok := r.table[c]
	return d, ok
}

// Table returns a copy of the effective descriptor table.
func (r *Registry) Table() map[hosttypes.Capability]hosttypes.Descriptor {
	out := make(map[hosttypes.Capability]hosttypes.Descriptor, len(r.table))
	for c, d := range r.table {
		out[c] = d
	}
	return out
}

// Capabilities lists the capabilities with a descriptor, in declaration order.
func (r *Registry) Capabilities() []hosttypes.Capability {
	var out []hosttypes.Capability
	for _, c := range hosttypes.AllCapabilities() {
		if _, ok := r.table[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Resolve returns a live handle for c, contacting the host only on a cache
// miss or when the cached handle fails its liveness probe.
func (r *Registry) Resolve(ctx context.Context, c hosttypes.Capability) (hosttypes.Handle, error) {
	d, ok := r.table[c]
	if !ok {
		return nil, hosttypes.NewError("capability.Resolve", hosttypes.KindNotFound, "no descriptor for capability %s", c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, cached := r.cache[c]; cached {
		if r.probe(ctx, h) {
			return h, nil
		}
		delete(r.cache, c)
		r.logger.Debug("Cached handle failed liveness probe", "capability", c.String())
	}

	h, err := r.getService(ctx, d)
	if err != nil {
		return nil, &hosttypes.Error{
			Op:     "capability.Resolve",
			Kind:   hosttypes.KindUnavailable,
			Detail: fmt.Sprintf("host could not provide %s", c),
			Cause:  err,
		}
	}
	if h == nil || !r.probe(ctx, h) {
		return nil, hosttypes.NewError("capability.Resolve", hosttypes.KindUnavailable, "handle for %s is not live", c)
	}

	r.cache[c] = h
	return h, nil
}

// ResolveName parses name and resolves it.
func (r *Registry) ResolveName(ctx context.Context, name string) (hosttypes.Handle, error) {
	c, err := hosttypes.ParseCapability(name)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, c)
}

// Cached reports whether c currently has a cache entry.
func (r *Registry) Cached(c hosttypes.Capability) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cache[c]
	return ok
}

// CachedHandles returns a snapshot of the cache.
func (r *Registry) CachedHandles() map[hosttypes.Capability]hosttypes.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[hosttypes.Capability]hosttypes.Handle, len(r.cache))
	for c, h := range r.cache {
		out[c] = h
	}
	return out
}

// Invalidate drops the cache entry for c.
func (r *Registry) Invalidate(c hosttypes.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, c)
}

// Reset drops every cache entry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[hosttypes.Capability]hosttypes.Handle)
}

// probe reports whether h still answers the base interface. Errors and panics count as dead.
func (r *Registry) probe(ctx context.Context, h hosttypes.Handle) (live bool) {
	defer func() {
		if rec := recover(); rec != nil {
			live = false
		}
	}()
	_, err := r.host.QueryInterface(ctx, h, hosttypes.InterfaceSupports)
	return err == nil
}

func (r *Registry) getService(ctx context.Context, d hosttypes.Descriptor) (h hosttypes.Handle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h, err = nil, hosttypes.FromPanic("capability.getService", rec)
		}
	}()
	return r.host.GetService(ctx, d.ComponentID, d.InterfaceID)
}

// As resolves c and asserts the handle to T.
func As[T any](ctx context.Context, r *Registry, c hosttypes.Capability) (T, error) {
	var zero T
	h, err := r.Resolve(ctx, c)
	if err != nil {
		return zero, err
	}
	v, ok := h.(T)
	if !ok {
		return zero, hosttypes.NewError("capability.As", hosttypes.KindInterfaceMismatch, "handle for %s is %T", c, h)
	}
	return v, nil
}
