package testutils

import (
	"context"
	"fmt"
	"os"
	"sync"

	"hostkit/pkg/hosttypes"
)

// MockHost implements hosttypes.Host for testing. Components are registered
// by component ID; every call is counted.
type MockHost struct {
	mu         sync.Mutex
	components map[string]any
	dead       map[any]bool
	calls      map[string]int
	instances  map[string]int

	// For testing error scenarios
	getServiceError error
	panicOnGet      bool
	panicOnQuery    bool
}

// NewMockHost creates an empty mock host.
func NewMockHost() *MockHost {
	return &MockHost{
		components: make(map[string]any),
		dead:       make(map[any]bool),
		calls:      make(map[string]int),
		instances:  make(map[string]int),
	}
}

// Register binds a handle to a component ID.
func (m *MockHost) Register(componentID string, h any) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[componentID] = h
	return m
}

// RegisterCapability binds h to the default component ID of c.
func (m *MockHost) RegisterCapability(c hosttypes.Capability, h any) *MockHost {
	return m.Register(hosttypes.DefaultDescriptors()[c].ComponentID, h)
}

// Kill makes the liveness probe fail for h. h must be comparable.
func (m *MockHost) Kill(h any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead[h] = true
}

// Revive undoes Kill.
func (m *MockHost) Revive(h any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dead, h)
}

// SetGetServiceError makes every GetService call fail with err.
func (m *MockHost) SetGetServiceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getServiceError = err
}

// SetPanicOnGet makes GetService panic.
func (m *MockHost) SetPanicOnGet(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnGet = v
}

// SetPanicOnQuery makes QueryInterface panic.
func (m *MockHost) SetPanicOnQuery(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnQuery = v
}

// GetServiceCalls returns how often GetService was called for componentID.
func (m *MockHost) GetServiceCalls(componentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[componentID]
}

// CreateInstanceCalls returns how often CreateInstance was called for componentID.
func (m *MockHost) CreateInstanceCalls(componentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instances[componentID]
}

// GetService implements hosttypes.Host.
func (m *MockHost) GetService(_ context.Context, componentID, interfaceID string) (hosttypes.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[componentID]++
	if m.panicOnGet {
		panic(fmt.Sprintf("mock host panic for %s", componentID))
	}
	if m.getServiceError != nil {
		return nil, m.getServiceError
	}
	h, ok := m.components[componentID]
	if !ok {
		return nil, fmt.Errorf("component %s not registered", componentID)
	}
	if s, ok := h.(hosttypes.Supporter); ok && !s.Supports(interfaceID) {
		return nil, fmt.Errorf("component %s does not implement %s", componentID, interfaceID)
	}
	return h, nil
}

// CreateInstance implements hosttypes.Host. It returns the registered handle.
func (m *MockHost) CreateInstance(_ context.Context, componentID, _ string) (hosttypes.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances[componentID]++
	h, ok := m.components[componentID]
	if !ok {
		return nil, fmt.Errorf("component %s not registered", componentID)
	}
	return h, nil
}

// QueryInterface implements hosttypes.Host.
func (m *MockHost) QueryInterface(_ context.Context, h hosttypes.Handle, interfaceID string) (hosttypes.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.panicOnQuery {
		panic("mock host query panic")
	}
	if isComparable(h) && m.dead[h] {
		return nil, fmt.Errorf("handle is no longer alive")
	}
	if interfaceID == hosttypes.InterfaceSupports {
		return h, nil
	}
	if s, ok := h.(hosttypes.Supporter); ok && !s.Supports(interfaceID) {
		return nil, fmt.Errorf("no interface %s", interfaceID)
	}
	return h, nil
}

func isComparable(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]bool{v: true}
	return true
}

// RecordingConsole captures console messages.
type RecordingConsole struct {
	mu       sync.Mutex
	messages []string
}

// NewRecordingConsole creates an empty console.
func NewRecordingConsole() *RecordingConsole {
	return &RecordingConsole{}
}

// LogMessage implements hosttypes.Console.
func (c *RecordingConsole) LogMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of the recorded messages.
func (c *RecordingConsole) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}

// Reset clears recorded messages.
func (c *RecordingConsole) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// FaultyFileSystem is a local-file handle whose every call fails.
type FaultyFileSystem struct {
	Err error
}

func (f *FaultyFileSystem) err() error {
	if f.Err != nil {
		return f.Err
	}
	return fmt.Errorf("host file system failure")
}

func (f *FaultyFileSystem) Stat(string) (os.FileInfo, error)  { return nil, f.err() }
func (f *FaultyFileSystem) Lstat(string) (os.FileInfo, error) { return nil, f.err() }
func (f *FaultyFileSystem) OpenFile(string, int, os.FileMode) (hosttypes.File, error) {
	return nil, f.err()
}
func (f *FaultyFileSystem) Mkdir(string, os.FileMode) error       { return f.err() }
func (f *FaultyFileSystem) MkdirAll(string, os.FileMode) error    { return f.err() }
func (f *FaultyFileSystem) Remove(string) error                   { return f.err() }
func (f *FaultyFileSystem) RemoveAll(string) error                { return f.err() }
func (f *FaultyFileSystem) ReadDir(string) ([]os.FileInfo, error) { return nil, f.err() }
func (f *FaultyFileSystem) Abs(string) (string, error)            { return "", f.err() }
