package capability

import (
	"context"

	"hostkit/pkg/hosttypes"
)

// Service fetches a shared host object directly, bypassing the table and cache.
func (r *Registry) Service(ctx context.Context, componentID, interfaceID string) (h hosttypes.Handle, err error) {
	defer r.recoverHost("capability.Service", &err)
	h, err = r.host.GetService(ctx, componentID, interfaceID)
	if err != nil {
		return nil, r.fail("capability.Service", err)
	}
	return h, nil
}

// Instance creates a new host object.
func (r *Registry) Instance(ctx context.Context, componentID, interfaceID string) (h hosttypes.Handle, err error) {
	defer r.recoverHost("capability.Instance", &err)
	h, err = r.host.CreateInstance(ctx, componentID, interfaceID)
	if err != nil {
		return nil, r.fail("capability.Instance", err)
	}
	return h, nil
}

// Query views h through interfaceID.
func (r *Registry) Query(ctx context.Context, h hosttypes.Handle, interfaceID string) (out hosttypes.Handle, err error) {
	defer r.recoverHost("capability.Query", &err)
	out, err = r.host.QueryInterface(ctx, h, interfaceID)
	if err != nil {
		return nil, r.fail("capability.Query", err)
	}
	return out, nil
}

// InstanceOf creates a new object for the component registered under c.
func (r *Registry) InstanceOf(ctx context.Context, c hosttypes.Capability) (hosttypes.Handle, error) {
	d, ok := r.table[c]
	if !ok {
		return nil, hosttypes.NewError("capability.InstanceOf", hosttypes.KindNotFound, "no descriptor for capability %s", c)
	}
	return r.Instance(ctx, d.ComponentID, d.InterfaceID)
}

func (r *Registry) fail(op string, err error) error {
	wrapped := hosttypes.WrapError(op, "", err)
	r.logger.Error("[Error] " + op + ": " + wrapped.Message())
	return wrapped
}

func (r *Registry) recoverHost(op string, err *error) {
	if rec := recover(); rec != nil {
		*err = r.fail(op, hosttypes.FromPanic(op, rec))
	}
}
