package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/pkg/hosttypes"
)

func TestThreadService_FIFO(t *testing.T) {
	s := NewThreadService()
	defer s.Shutdown()

	th, err := s.NewThread()
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, th.Dispatch(context.Background(), hosttypes.RunnableFunc(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}), hosttypes.DispatchNormal))
	}
	require.NoError(t, th.Dispatch(context.Background(), hosttypes.RunnableFunc(func() {}), hosttypes.DispatchSync))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestThreadService_MainThreadIsShared(t *testing.T) {
	s := NewThreadService()
	defer s.Shutdown()

	assert.Same(t, s.MainThread(), s.MainThread())
	assert.Equal(t, "main", s.MainThread().ID())
}

func TestThreadService_PanicIsReported(t *testing.T) {
	s := NewThreadService()
	defer s.Shutdown()

	err := s.MainThread().Dispatch(context.Background(), hosttypes.RunnableFunc(func() {
		panic("runnable failed")
	}), hosttypes.DispatchSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runnable failed")

	ran := false
	require.NoError(t, s.MainThread().Dispatch(context.Background(), hosttypes.RunnableFunc(func() { ran = true }), hosttypes.DispatchSync))
	assert.True(t, ran)
}

func TestThreadService_SyncDispatchHonorsContext(t *testing.T) {
	s := NewThreadService()
	defer s.Shutdown()

	release := make(chan struct{})
	th, err := s.NewThread()
	require.NoError(t, err)
	require.NoError(t, th.Dispatch(context.Background(), hosttypes.RunnableFunc(func() { <-release }), hosttypes.DispatchNormal))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = th.Dispatch(ctx, hosttypes.RunnableFunc(func() {}), hosttypes.DispatchSync)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestThreadService_Shutdown(t *testing.T) {
	s := NewThreadService()
	th, err := s.NewThread()
	require.NoError(t, err)
	assert.True(t, s.Alive())

	s.Shutdown()
	assert.False(t, s.Alive())

	err = th.Dispatch(context.Background(), hosttypes.RunnableFunc(func() {}), hosttypes.DispatchNormal)
	assert.ErrorIs(t, err, hosttypes.ErrUnavailable)
	_, err = s.NewThread()
	assert.Error(t, err)

	err = th.Dispatch(context.Background(), nil, hosttypes.DispatchNormal)
	assert.ErrorIs(t, err, hosttypes.ErrInvalidArgument)
}

func TestThreadService_NestedSyncDispatchRunsInline(t *testing.T) {
	s := NewThreadService()
	defer s.Shutdown()

	worker, err := s.NewThread()
	require.NoError(t, err)

	for name, th := range map[string]hosttypes.Thread{"main": s.MainThread(), "worker": worker} {
		t.Run(name, func(t *testing.T) {
			var order []string
			done := make(chan error, 1)
			go func() {
				done <- th.Dispatch(context.Background(), hosttypes.RunnableFunc(func() {
					order = append(order, "outer")
					err := th.Dispatch(context.Background(), hosttypes.RunnableFunc(func() {
						order = append(order, "inner")
					}), hosttypes.DispatchSync)
					assert.NoError(t, err)
					order = append(order, "after")
				}), hosttypes.DispatchSync)
			}()

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("nested sync dispatch did not return")
			}
			assert.Equal(t, []string{"outer", "inner", "after"}, order)
		})
	}
}

func TestThreadService_NestedSyncDispatchReportsPanic(t *testing.T) {
	s := NewThreadService()
	defer s.Shutdown()

	var inner error
	require.NoError(t, s.MainThread().Dispatch(context.Background(), hosttypes.RunnableFunc(func() {
		inner = s.MainThread().Dispatch(context.Background(), hosttypes.RunnableFunc(func() {
			panic("inner failed")
		}), hosttypes.DispatchSync)
	}), hosttypes.DispatchSync))
	require.Error(t, inner)
	assert.Contains(t, inner.Error(), "inner failed")
}

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	assert.NotZero(t, id)
	assert.Equal(t, id, goroutineID())

	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	assert.NotEqual(t, id, <-other)
}
