package hostkit

import (
	"context"

	"hostkit/pkg/derive"
	"hostkit/pkg/hosttypes"
)

type workerSlot struct {
	thread hosttypes.Thread
	err    error
}

// Thread dispatches runnables through the thread-manager capability.
type Thread struct {
	k      *Kit
	worker *derive.Singleton[workerSlot]
}

func newThread(k *Kit) *Thread {
	t := &Thread{k: k}
	t.worker = derive.NewSingleton(func() workerSlot {
		w, err := t.CreateWorkerThread()
		return workerSlot{thread: w, err: err}
	})
	return t
}

// reset forgets the shared worker thread.
func (t *Thread) reset() {
	t.worker.Reset()
}

// GetThreadManager returns the thread manager.
func (t *Thread) GetThreadManager() (hosttypes.ThreadManager, error) {
	return use[hosttypes.ThreadManager](t.k, "Thread.GetThreadManager", hosttypes.CapThreadManager)
}

// GetMainThread returns the host main thread.
func (t *Thread) GetMainThread() (hosttypes.Thread, error) {
	const op = "Thread.GetMainThread"
	tm, err := use[hosttypes.ThreadManager](t.k, op, hosttypes.CapThreadManager)
	if err != nil {
		return nil, err
	}
	main, err := try(op, func() (hosttypes.Thread, error) { return tm.MainThread(), nil })
	if err != nil {
		return nil, t.k.fail(op, err)
	}
	if main == nil {
		return nil, t.k.fail(op, hosttypes.NewError(op, hosttypes.KindUnavailable, "host has no main thread"))
	}
	return main, nil
}

// DispatchMainThread hands r to the main thread. In DispatchSync mode it
// waits until r has run or ctx is done.
func (t *Thread) DispatchMainThread(ctx context.Context, r hosttypes.Runnable, mode hosttypes.DispatchMode) error {
	const op = "Thread.DispatchMainThread"
	if r == nil {
		return invalid(op, "runnable is required")
	}
	main, err := t.GetMainThread()
	if err != nil {
		return err
	}
	return t.dispatch(ctx, op, main, r, mode)
}

// DispatchWorkerThread hands r to worker.
func (t *Thread) DispatchWorkerThread(ctx context.Context, worker hosttypes.Thread, r hosttypes.Runnable, mode hosttypes.DispatchMode) error {
	const op = "Thread.DispatchWorkerThread"
	if worker == nil {
		return invalid(op, "thread is required")
	}
	if r == nil {
		return invalid(op, "runnable is required")
	}
	return t.dispatch(ctx, op, worker, r, mode)
}

func (t *Thread) dispatch(ctx context.Context, op string, th hosttypes.Thread, r hosttypes.Runnable, mode hosttypes.DispatchMode) error {
	if ctx == nil {
		ctx = t.k.ctx
	}
	if err := tryDo(op, func() error { return th.Dispatch(ctx, r, mode) }); err != nil {
		return t.k.fail(op, err)
	}
	return nil
}

// GetWorkerThread returns the shared worker thread, creating it on first use.
func (t *Thread) GetWorkerThread() (hosttypes.Thread, error) {
	slot := t.worker.Get()
	if slot.err != nil {
		t.worker.Reset()
		return nil, slot.err
	}
	return slot.thread, nil
}

// CreateWorkerThread starts a new worker thread on every call.
func (t *Thread) CreateWorkerThread() (hosttypes.Thread, error) {
	const op = "Thread.CreateWorkerThread"
	tm, err := use[hosttypes.ThreadManager](t.k, op, hosttypes.CapThreadManager)
	if err != nil {
		return nil, err
	}
	w, err := try(op, tm.NewThread)
	if err != nil {
		return nil, t.k.fail(op, err)
	}
	return w, nil
}

// CallbackRunnable calls Func with Data. A panic in Func is logged.
type CallbackRunnable struct {
	Func func(data any)
	Data any

	k *Kit
}

// NewCallbackRunnable wraps fn and data in a runnable.
func (t *Thread) NewCallbackRunnable(fn func(data any), data any) *CallbackRunnable {
	return &CallbackRunnable{Func: fn, Data: data, k: t.k}
}

// Run implements hosttypes.Runnable.
func (c *CallbackRunnable) Run() {
	const op = "Thread.CallbackRunnable"
	if c.Func == nil {
		return
	}
	if err := tryDo(op, func() error { c.Func(c.Data); return nil }); err != nil {
		c.k.fail(op, err)
	}
}

// WorkerRunnable calls Func with Data and, when Callback is set, dispatches
// Callback with the result to the main thread.
type WorkerRunnable struct {
	Func     func(data any) any
	Callback func(result any)
	Data     any

	t *Thread
}

// NewWorkerRunnable wraps fn, callback and data in a runnable.
func (t *Thread) NewWorkerRunnable(fn func(data any) any, callback func(result any), data any) *WorkerRunnable {
	return &WorkerRunnable{Func: fn, Callback: callback, Data: data, t: t}
}

// CreateWorkerThreadAdapter is NewWorkerRunnable.
func (t *Thread) CreateWorkerThreadAdapter(fn func(data any) any, callback func(result any), data any) *WorkerRunnable {
	return t.NewWorkerRunnable(fn, callback, data)
}

// Run implements hosttypes.Runnable.
func (w *WorkerRunnable) Run() {
	const op = "Thread.WorkerRunnable"
	var result any
	if w.Func != nil {
		err := tryDo(op, func() error { result = w.Func(w.Data); return nil })
		if err != nil {
			w.t.k.fail(op, err)
			return
		}
	}
	if w.Callback != nil {
		_ = w.t.DispatchMainThread(w.t.k.ctx, w.t.NewCallbackRunnable(w.Callback, result), hosttypes.DispatchNormal)
	}
}
