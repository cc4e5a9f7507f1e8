package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/pkg/hosttypes"
)

// MockService is a minimal registrable component.
type MockService struct {
	name             string
	initializeCalled bool
	initializeError  error
	alive            bool
}

func NewMockService(name string) *MockService {
	return &MockService{name: name, alive: true}
}

func (m *MockService) Name() string { return m.name }

func (m *MockService) Initialize() error {
	m.initializeCalled = true
	return m.initializeError
}

func (m *MockService) Alive() bool { return m.alive }

func TestRegistry_RegisterService(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterService("@test/a;1", NewMockService("a"), "test.A"))
	err := r.RegisterService("@test/a;1", NewMockService("a2"), "test.A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	err = r.RegisterFactory("@test/a;1", func() (hosttypes.Service, error) { return NewMockService("f"), nil })
	require.Error(t, err)
	assert.Len(t, r.GetAllServices(), 1)
}

func TestRegistry_GetService(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	svc := NewMockService("a")
	require.NoError(t, r.RegisterService("@test/a;1", svc, "test.A"))

	tests := []struct {
		name      string
		component string
		iface     string
		wantErr   string
	}{
		{"registered interface", "@test/a;1", "test.A", ""},
		{"supports probe", "@test/a;1", hosttypes.InterfaceSupports, ""},
		{"unknown component", "@test/b;1", "test.A", "not found"},
		{"unknown interface", "@test/a;1", "test.B", "does not implement"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := r.GetService(ctx, tt.component, tt.iface)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Same(t, svc, h)
		})
	}
}

func TestRegistry_Factory(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	created := 0
	require.NoError(t, r.RegisterFactory("@test/f;1", func() (hosttypes.Service, error) {
		created++
		return NewMockService("f"), nil
	}, "test.F"))

	shared1, err := r.GetService(ctx, "@test/f;1", "test.F")
	require.NoError(t, err)
	shared2, err := r.GetService(ctx, "@test/f;1", "test.F")
	require.NoError(t, err)
	assert.Same(t, shared1, shared2)

	inst1, err := r.CreateInstance(ctx, "@test/f;1", "test.F")
	require.NoError(t, err)
	inst2, err := r.CreateInstance(ctx, "@test/f;1", "test.F")
	require.NoError(t, err)
	assert.NotSame(t, inst1, inst2)
	assert.Equal(t, 3, created)

	_, err = r.QueryInterface(ctx, inst1, "test.F")
	assert.NoError(t, err)
}

func TestRegistry_CreateInstanceDoesNotRetainInstances(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	require.NoError(t, r.RegisterFactory("@test/f;1", func() (hosttypes.Service, error) {
		return NewMockService("f"), nil
	}, "test.F"))

	var last hosttypes.Handle
	for i := 0; i < 100; i++ {
		h, err := r.CreateInstance(ctx, "@test/f;1", "test.F")
		require.NoError(t, err)
		last = h
	}
	assert.Empty(t, r.handles)
	assert.Len(t, r.instances, 1)

	_, err := r.QueryInterface(ctx, last, "test.F")
	assert.NoError(t, err)

	r.Unregister("@test/f;1")
	assert.Empty(t, r.instances)
	_, err = r.QueryInterface(ctx, last, "test.F")
	assert.ErrorContains(t, err, "not owned")
}

func TestRegistry_FactoryError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFactory("@test/f;1", func() (hosttypes.Service, error) {
		return nil, errors.New("boom")
	}, "test.F"))

	_, err := r.GetService(context.Background(), "@test/f;1", "test.F")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRegistry_CreateInstanceWithoutFactory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterService("@test/a;1", NewMockService("a"), "test.A"))

	_, err := r.CreateInstance(context.Background(), "@test/a;1", "test.A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be instantiated")
}

func TestRegistry_QueryInterface(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	svc := NewMockService("a")
	require.NoError(t, r.RegisterService("@test/a;1", svc, "test.A"))

	_, err := r.QueryInterface(ctx, svc, hosttypes.InterfaceSupports)
	assert.NoError(t, err)

	_, err = r.QueryInterface(ctx, NewMockService("stranger"), hosttypes.InterfaceSupports)
	assert.ErrorContains(t, err, "not owned")

	svc.alive = false
	_, err = r.QueryInterface(ctx, svc, hosttypes.InterfaceSupports)
	assert.ErrorContains(t, err, "no longer alive")

	svc.alive = true
	r.Unregister("@test/a;1")
	_, err = r.QueryInterface(ctx, svc, hosttypes.InterfaceSupports)
	assert.Error(t, err)
}

func TestRegistry_InitializeAll(t *testing.T) {
	r := NewRegistry()
	a := NewMockService("a")
	b := NewMockService("b")
	require.NoError(t, r.RegisterService("@test/a;1", a))
	require.NoError(t, r.RegisterService("@test/b;1", b))

	require.NoError(t, r.InitializeAll())
	assert.True(t, a.initializeCalled)
	assert.True(t, b.initializeCalled)

	b.initializeError = errors.New("init failed")
	err := r.InitializeAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "@test/b;1")
}
