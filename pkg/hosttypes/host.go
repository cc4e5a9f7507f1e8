package hosttypes

import "context"

// Handle is an opaque reference to a host object.
type Handle = any

// Host is the component system hostkit sits on top of.
//
// GetService returns the shared instance for a component, CreateInstance a new one.
// QueryInterface returns h viewed through interfaceID, or an error when h does not
// implement it. A handle that answers InterfaceSupports is considered live.
type Host interface {
	GetService(ctx context.Context, componentID, interfaceID string) (Handle, error)
	CreateInstance(ctx context.Context, componentID, interfaceID string) (Handle, error)
	QueryInterface(ctx context.Context, h Handle, interfaceID string) (Handle, error)
}

// Service is implemented by every native component.
type Service interface {
	Name() string
	Initialize() error
}

// Supporter is implemented by handles that can report their own liveness.
type Supporter interface {
	Supports(interfaceID string) bool
}
