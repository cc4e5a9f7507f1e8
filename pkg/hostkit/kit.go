// Package hostkit is the facade layer over a host component system. A Kit
// resolves capabilities through a capability.Registry and exposes uniform
// wrappers that validate arguments, call the host and turn host failures
// into one logged diagnostic plus a typed error.
package hostkit

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"github.com/charmbracelet/log"

	"hostkit/internal/config"
	"hostkit/internal/logger"
	"hostkit/pkg/capability"
	"hostkit/pkg/hosttypes"
	"hostkit/pkg/namespace"
)

// RootNamespace is the namespace every facade is exposed under.
const RootNamespace = "hostkit"

// Kit is the composition root: one registry, one namespace tree and the facades.
type Kit struct {
	ctx      context.Context
	registry *capability.Registry
	tree     *namespace.Tree
	settings config.Settings
	logger   *log.Logger
	regOpts  []capability.Option

	File        *File
	Dir         *Dir
	CryptoHash  *CryptoHash
	Charset     *Charset
	JSON        *JSON
	Gzip        *Gzip
	Sound       *Sound
	Dialog      *Dialog
	Pref        *Pref
	Thread      *Thread
	App         *App
	Controllers *Controllers
}

// Option configures a Kit.
type Option func(*Kit)

// WithSettings replaces the default settings.
func WithSettings(s config.Settings) Option {
	return func(k *Kit) { k.settings = s }
}

// WithContext sets the context used for host calls made on behalf of facades.
func WithContext(ctx context.Context) Option {
	return func(k *Kit) { k.ctx = ctx }
}

// WithLogger sets the fallback logger used when no console capability is available.
func WithLogger(l *log.Logger) Option {
	return func(k *Kit) { k.logger = l }
}

// WithRegistryOptions passes options through to capability.NewRegistry.
func WithRegistryOptions(opts ...capability.Option) Option {
	return func(k *Kit) { k.regOpts = append(k.regOpts, opts...) }
}

// New creates a Kit over host.
func New(host hosttypes.Host, opts ...Option) (*Kit, error) {
	k := &Kit{
		ctx:      context.Background(),
		settings: config.Defaults(),
		tree:     namespace.New(),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = logger.NewStyledLogger("hostkit")
	}

	regOpts := []capability.Option{capability.WithLogger(k.logger)}
	if k.settings.DescriptorTable != "" {
		regOpts = append(regOpts, capability.WithTableFile(k.settings.DescriptorTable))
	}
	regOpts = append(regOpts, k.regOpts...)

	registry, err := capability.NewRegistry(host, regOpts...)
	if err != nil {
		return nil, err
	}
	k.registry = registry

	k.File = &File{k: k}
	k.Dir = &Dir{k: k}
	k.CryptoHash = &CryptoHash{k: k}
	k.Charset = &Charset{k: k}
	k.JSON = &JSON{k: k}
	k.Gzip = &Gzip{k: k}
	k.Sound = &Sound{k: k}
	k.Dialog = newDialog(k)
	k.Pref = &Pref{k: k}
	k.Thread = newThread(k)
	k.App = newApp(k)
	k.Controllers = newControllers(k)

	k.expose()
	return k, nil
}

func (k *Kit) expose() {
	facades := map[string]any{
		"File":        k.File,
		"Dir":         k.Dir,
		"CryptoHash":  k.CryptoHash,
		"Charset":     k.Charset,
		"JSON":        k.JSON,
		"Gzip":        k.Gzip,
		"Sound":       k.Sound,
		"Dialog":      k.Dialog,
		"Pref":        k.Pref,
		"Thread":      k.Thread,
		"App":         k.App,
		"Controllers": k.Controllers,
	}
	for name, f := range facades {
		k.tree.Build(RootNamespace+"."+name, f)
	}
}

// Registry returns the capability registry.
func (k *Kit) Registry() *capability.Registry { return k.registry }

// Namespace returns the namespace tree holding the facades.
func (k *Kit) Namespace() *namespace.Tree { return k.tree }

// Settings returns the settings the Kit was built with.
func (k *Kit) Settings() config.Settings { return k.settings }

// Context returns the context used for host calls.
func (k *Kit) Context() context.Context { return k.ctx }

// Close shuts down cached handles that own resources and empties the cache.
func (k *Kit) Close() error {
	var errs []error
	for c, h := range k.registry.CachedHandles() {
		if c == hosttypes.CapConsole {
			continue
		}
		switch v := h.(type) {
		case interface{ Shutdown() }:
			v.Shutdown()
		case io.Closer:
			if err := v.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	k.Thread.reset()
	k.registry.Reset()
	return errors.Join(errs...)
}

// use resolves capability c as T, logging and wrapping any failure under op.
func use[T any](k *Kit, op string, c hosttypes.Capability) (T, error) {
	h, err := capability.As[T](k.ctx, k.registry, c)
	if err != nil {
		var zero T
		return zero, k.fail(op, err)
	}
	return h, nil
}

// try runs a host call, converting a panic into a host fault.
func try[T any](op string, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = hosttypes.FromPanic(op, r)
		}
	}()
	return fn()
}

// tryDo is try for calls without a result.
func tryDo(op string, fn func() error) error {
	_, err := try(op, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// fail logs exactly one diagnostic for a host failure and returns it typed.
func (k *Kit) fail(op string, err error) *hosttypes.Error {
	he := hosttypes.WrapError(op, "", err)
	k.log(logger.WrapperFailure(op, he.Message()))
	return he
}

// invalid reports caller misuse. Nothing is logged.
func invalid(op, detail string, args ...any) *hosttypes.Error {
	return hosttypes.NewError(op, hosttypes.KindInvalidArgument, detail, args...)
}

// fsFail classifies a filesystem error: a missing path is KindNotFound and is
// not logged, anything else is a logged host failure.
func (k *Kit) fsFail(op, path string, err error) *hosttypes.Error {
	if errors.Is(err, fs.ErrNotExist) {
		return hosttypes.NewError(op, hosttypes.KindNotFound, "no such file or directory").WithPath(path)
	}
	return k.fail(op, err).WithPath(path)
}

// log writes line to the console capability, falling back to the logger.
func (k *Kit) log(line string) {
	console, err := capability.As[hosttypes.Console](k.ctx, k.registry, hosttypes.CapConsole)
	if err == nil {
		if tryDo("console", func() error { console.LogMessage(line); return nil }) == nil {
			return
		}
	}
	k.logger.Error(line)
}
