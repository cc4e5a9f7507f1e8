package capability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/internal/testutils"
	"hostkit/pkg/hosttypes"
)

type mockHasher struct{ name string }

func (m *mockHasher) Supports(interfaceID string) bool {
	return interfaceID == hosttypes.IfaceHash || interfaceID == hosttypes.InterfaceSupports
}

func hashComponent() string {
	return hosttypes.DefaultDescriptors()[hosttypes.CapHash].ComponentID
}

func newTestRegistry(t *testing.T, host hosttypes.Host, opts ...Option) *Registry {
	t.Helper()
	r, err := NewRegistry(host, opts...)
	require.NoError(t, err)
	return r
}

func TestNewRegistry_RequiresHost(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.True(t, errors.Is(err, hosttypes.ErrInvalidArgument))
}

func TestResolve_CacheHit(t *testing.T) {
	host := testutils.NewMockHost()
	handle := &mockHasher{name: "h1"}
	host.RegisterCapability(hosttypes.CapHash, handle)
	r := newTestRegistry(t, host)
	ctx := context.Background()

	first, err := r.Resolve(ctx, hosttypes.CapHash)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, hosttypes.CapHash)
	require.NoError(t, err)

	assert.Same(t, handle, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, host.GetServiceCalls(hashComponent()))
	assert.True(t, r.Cached(hosttypes.CapHash))
}

func TestResolve_InvalidatesDeadHandle(t *testing.T) {
	host := testutils.NewMockHost()
	stale := &mockHasher{name: "stale"}
	host.RegisterCapability(hosttypes.CapHash, stale)
	r := newTestRegistry(t, host)
	ctx := context.Background()

	_, err := r.Resolve(ctx, hosttypes.CapHash)
	require.NoError(t, err)

	fresh := &mockHasher{name: "fresh"}
	host.Kill(stale)
	host.RegisterCapability(hosttypes.CapHash, fresh)

	got, err := r.Resolve(ctx, hosttypes.CapHash)
	require.NoError(t, err)
	assert.Same(t, fresh, got)
	assert.Equal(t, 2, host.GetServiceCalls(hashComponent()))
}

func TestResolve_DeadOnArrivalIsNotCached(t *testing.T) {
	host := testutils.NewMockHost()
	handle := &mockHasher{}
	host.RegisterCapability(hosttypes.CapHash, handle)
	host.Kill(handle)
	r := newTestRegistry(t, host)

	_, err := r.Resolve(context.Background(), hosttypes.CapHash)
	require.Error(t, err)
	assert.Equal(t, hosttypes.KindUnavailable, hosttypes.KindOf(err))
	assert.False(t, r.Cached(hosttypes.CapHash))
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *testutils.MockHost)
		cap      hosttypes.Capability
		expected hosttypes.Kind
	}{
		{
			name:     "unknown capability",
			setup:    func(*testutils.MockHost) {},
			cap:      hosttypes.Capability(999),
			expected: hosttypes.KindNotFound,
		},
		{
			name:     "component missing on host",
			setup:    func(*testutils.MockHost) {},
			cap:      hosttypes.CapJSON,
			expected: hosttypes.KindUnavailable,
		},
		{
			name:     "host returns error",
			setup:    func(h *testutils.MockHost) { h.SetGetServiceError(errors.New("boom")) },
			cap:      hosttypes.CapHash,
			expected: hosttypes.KindUnavailable,
		},
		{
			name:     "host panics",
			setup:    func(h *testutils.MockHost) { h.SetPanicOnGet(true) },
			cap:      hosttypes.CapHash,
			expected: hosttypes.KindUnavailable,
		},
		{
			name: "probe panics",
			setup: func(h *testutils.MockHost) {
				h.RegisterCapability(hosttypes.CapHash, &mockHasher{})
				h.SetPanicOnQuery(true)
			},
			cap:      hosttypes.CapHash,
			expected: hosttypes.KindUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := testutils.NewMockHost()
			tt.setup(host)
			r := newTestRegistry(t, host)

			h, err := r.Resolve(context.Background(), tt.cap)
			assert.Nil(t, h)
			require.Error(t, err)
			assert.Equal(t, tt.expected, hosttypes.KindOf(err))
		})
	}
}

func TestResolve_UnknownNeverContactsHost(t *testing.T) {
	host := testutils.NewMockHost()
	r := newTestRegistry(t, host, WithDescriptors(map[hosttypes.Capability]hosttypes.Descriptor{
		hosttypes.CapHash: {},
	}))

	_, err := r.Resolve(context.Background(), hosttypes.CapHash)
	assert.Equal(t, hosttypes.KindNotFound, hosttypes.KindOf(err))
	assert.Equal(t, 0, host.GetServiceCalls(hashComponent()))
}

func TestResolveName(t *testing.T) {
	host := testutils.NewMockHost()
	host.RegisterCapability(hosttypes.CapHash, &mockHasher{})
	r := newTestRegistry(t, host)

	h, err := r.ResolveName(context.Background(), "hash")
	require.NoError(t, err)
	assert.NotNil(t, h)

	_, err = r.ResolveName(context.Background(), "nonexistent-service")
	assert.True(t, errors.Is(err, hosttypes.ErrNotFound))
}

func TestResolve_ConcurrentCallersResolveOnce(t *testing.T) {
	host := testutils.NewMockHost()
	host.RegisterCapability(hosttypes.CapHash, &mockHasher{})
	r := newTestRegistry(t, host)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), hosttypes.CapHash)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, host.GetServiceCalls(hashComponent()))
}

func TestInvalidateAndReset(t *testing.T) {
	host := testutils.NewMockHost()
	host.RegisterCapability(hosttypes.CapHash, &mockHasher{})
	r := newTestRegistry(t, host)
	ctx := context.Background()

	_, err := r.Resolve(ctx, hosttypes.CapHash)
	require.NoError(t, err)
	r.Invalidate(hosttypes.CapHash)
	assert.False(t, r.Cached(hosttypes.CapHash))

	_, err = r.Resolve(ctx, hosttypes.CapHash)
	require.NoError(t, err)
	r.Reset()
	assert.Empty(t, r.CachedHandles())
	assert.Equal(t, 2, host.GetServiceCalls(hashComponent()))
}

func TestAs(t *testing.T) {
	host := testutils.NewMockHost()
	host.RegisterCapability(hosttypes.CapConsole, testutils.NewRecordingConsole())
	host.RegisterCapability(hosttypes.CapHash, &mockHasher{})
	r := newTestRegistry(t, host)
	ctx := context.Background()

	console, err := As[hosttypes.Console](ctx, r, hosttypes.CapConsole)
	require.NoError(t, err)
	console.LogMessage("hi")

	_, err = As[hosttypes.Console](ctx, r, hosttypes.CapHash)
	assert.Equal(t, hosttypes.KindInterfaceMismatch, hosttypes.KindOf(err))
}

func TestWithTableFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "table.yaml", "hash:\n  component: \"@vendor/hash;2\"\n  interface: vendor.Hash\n"},
		{"toml", "table.toml", "[hash]\ncomponent = \"@vendor/hash;2\"\ninterface = \"vendor.Hash\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			host := testutils.NewMockHost()
			host.Register("@vendor/hash;2", &struct{ id int }{id: 2})
			r := newTestRegistry(t, host, WithTableFile(path))

			d, ok := r.Descriptor(hosttypes.CapHash)
			require.True(t, ok)
			assert.Equal(t, hosttypes.Descriptor{ComponentID: "@vendor/hash;2", InterfaceID: "vendor.Hash"}, d)

			_, err := r.Resolve(context.Background(), hosttypes.CapHash)
			require.NoError(t, err)
			assert.Equal(t, 1, host.GetServiceCalls("@vendor/hash;2"))
		})
	}
}

func TestWithTableFile_Errors(t *testing.T) {
	_, err := NewRegistry(testutils.NewMockHost(), WithTableFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Equal(t, hosttypes.KindNotFound, hosttypes.KindOf(err))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("not-a-capability:\n  component: x\n"), 0644))
	_, err = NewRegistry(testutils.NewMockHost(), WithTableFile(bad))
	assert.Equal(t, hosttypes.KindInvalidArgument, hosttypes.KindOf(err))

	badTOML := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(badTOML, []byte("[hash\ncomponent = 1\n"), 0644))
	_, err = NewRegistry(testutils.NewMockHost(), WithTableFile(badTOML))
	assert.Equal(t, hosttypes.KindInvalidArgument, hosttypes.KindOf(err))
}

func TestCapabilities_DeclarationOrder(t *testing.T) {
	r := newTestRegistry(t, testutils.NewMockHost())
	caps := r.Capabilities()
	require.NotEmpty(t, caps)
	assert.Equal(t, hosttypes.CapScriptLoader, caps[0])
	assert.Len(t, r.Table(), len(caps))
}

func TestPassthroughs(t *testing.T) {
	host := testutils.NewMockHost()
	host.Register("@x/thing;1", &mockHasher{})
	r := newTestRegistry(t, host)
	ctx := context.Background()

	h, err := r.Service(ctx, "@x/thing;1", hosttypes.IfaceHash)
	require.NoError(t, err)

	_, err = r.Query(ctx, h, hosttypes.IfaceHash)
	assert.NoError(t, err)
	_, err = r.Query(ctx, h, hosttypes.IfaceJSON)
	assert.Equal(t, hosttypes.KindHostFault, hosttypes.KindOf(err))

	_, err = r.Instance(ctx, "@x/thing;1", hosttypes.IfaceHash)
	assert.NoError(t, err)
	assert.Equal(t, 1, host.CreateInstanceCalls("@x/thing;1"))

	_, err = r.Service(ctx, "@x/missing;1", hosttypes.IfaceHash)
	assert.Equal(t, hosttypes.KindHostFault, hosttypes.KindOf(err))

	host.SetPanicOnGet(true)
	_, err = r.Service(ctx, "@x/thing;1", hosttypes.IfaceHash)
	assert.Equal(t, hosttypes.KindHostFault, hosttypes.KindOf(err))
}
