package hostkit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/pkg/hosttypes"
)

func TestThread_DispatchMainThreadSync(t *testing.T) {
	tk := newTestKit(t, kitOptions{})

	var ran atomic.Bool
	r := tk.Thread.NewCallbackRunnable(func(data any) { ran.Store(data == "payload") }, "payload")
	require.NoError(t, tk.Thread.DispatchMainThread(context.Background(), r, hosttypes.DispatchSync))
	assert.True(t, ran.Load())

	main1, err := tk.Thread.GetMainThread()
	require.NoError(t, err)
	main2, err := tk.Thread.GetMainThread()
	require.NoError(t, err)
	assert.Same(t, main1, main2)
}

func TestThread_WorkerRunnableCallsBackOnMain(t *testing.T) {
	tk := newTestKit(t, kitOptions{})

	worker, err := tk.Thread.GetWorkerThread()
	require.NoError(t, err)
	again, err := tk.Thread.GetWorkerThread()
	require.NoError(t, err)
	assert.Same(t, worker, again)

	results := make(chan any, 1)
	r := tk.Thread.CreateWorkerThreadAdapter(
		func(data any) any { return data.(int) * 2 },
		func(result any) { results <- result },
		21,
	)
	require.NoError(t, tk.Thread.DispatchWorkerThread(context.Background(), worker, r, hosttypes.DispatchNormal))

	select {
	case got := <-results:
		assert.Equal(t, 42, got)
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not dispatched")
	}

	other, err := tk.Thread.CreateWorkerThread()
	require.NoError(t, err)
	assert.NotEqual(t, worker.ID(), other.ID())
}

func TestThread_PanicsAreLogged(t *testing.T) {
	tk := newTestKit(t, kitOptions{})

	r := tk.Thread.NewCallbackRunnable(func(any) { panic("boom") }, nil)
	require.NoError(t, tk.Thread.DispatchMainThread(context.Background(), r, hosttypes.DispatchSync))

	w := tk.Thread.NewWorkerRunnable(func(any) any { panic("worker boom") }, func(any) { t.Error("callback must not run") }, nil)
	w.Run()

	lines := tk.errorLines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Thread.CallbackRunnable")
	assert.Contains(t, lines[1], "Thread.WorkerRunnable")
}

func TestThread_Misuse(t *testing.T) {
	tk := newTestKit(t, kitOptions{})
	r := hosttypes.RunnableFunc(func() {})

	assert.True(t, errors.Is(tk.Thread.DispatchMainThread(context.Background(), nil, hosttypes.DispatchSync), hosttypes.ErrInvalidArgument))
	assert.True(t, errors.Is(tk.Thread.DispatchWorkerThread(context.Background(), nil, r, hosttypes.DispatchSync), hosttypes.ErrInvalidArgument))
	assert.Empty(t, tk.errorLines())
}

func TestThread_AfterShutdown(t *testing.T) {
	tk := newTestKit(t, kitOptions{})

	worker, err := tk.Thread.GetWorkerThread()
	require.NoError(t, err)
	tk.native.Threads.Shutdown()

	err = tk.Thread.DispatchWorkerThread(context.Background(), worker, hosttypes.RunnableFunc(func() {}), hosttypes.DispatchNormal)
	assert.True(t, errors.Is(err, hosttypes.ErrUnavailable))

	tk.Thread.reset()
	_, err = tk.Thread.GetWorkerThread()
	assert.Error(t, err)
	assert.NotEmpty(t, tk.errorLines())
}

func TestThread_NestedSyncDispatchOnSameThread(t *testing.T) {
	tk := newTestKit(t, kitOptions{})
	worker, err := tk.Thread.GetWorkerThread()
	require.NoError(t, err)

	tests := []struct {
		name     string
		dispatch func(hosttypes.Runnable) error
	}{
		{"main", func(r hosttypes.Runnable) error {
			return tk.Thread.DispatchMainThread(context.Background(), r, hosttypes.DispatchSync)
		}},
		{"worker", func(r hosttypes.Runnable) error {
			return tk.Thread.DispatchWorkerThread(context.Background(), worker, r, hosttypes.DispatchSync)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inner atomic.Bool
			done := make(chan error, 1)
			outer := tk.Thread.NewCallbackRunnable(func(any) {
				done <- tt.dispatch(hosttypes.RunnableFunc(func() { inner.Store(true) }))
			}, nil)

			go func() { _ = tt.dispatch(outer) }()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("nested sync dispatch did not return")
			}
			assert.True(t, inner.Load())
		})
	}
	assert.Empty(t, tk.errorLines())
}
