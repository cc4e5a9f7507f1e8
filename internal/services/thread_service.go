package services

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"hostkit/internal/logger"
	"hostkit/pkg/derive"
	"hostkit/pkg/hosttypes"
)

type task struct {
	r    hosttypes.Runnable
	done chan error
}

// workerThread runs queued runnables one at a time on its own goroutine.
type workerThread struct {
	id    string
	owner atomic.Uint64

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool

	wg conc.WaitGroup
}

func newWorkerThread(id string) *workerThread {
	t := &workerThread{id: id}
	t.cond = sync.NewCond(&t.mu)
	t.wg.Go(t.loop)
	return t
}

func (t *workerThread) loop() {
	t.owner.Store(goroutineID())
	for {
		t.mu.Lock()
		for len(t.queue) == 0 && !t.closed {
			t.cond.Wait()
		}
		if len(t.queue) == 0 {
			t.mu.Unlock()
			return
		}
		next := t.queue[0]
		t.queue = t.queue[1:]
		t.mu.Unlock()

		err := t.run(next.r)
		if next.done != nil {
			next.done <- err
		}
	}
}

func (t *workerThread) run(r hosttypes.Runnable) error {
	var pc panics.Catcher
	pc.Try(r.Run)
	if rec := pc.Recovered(); rec != nil {
		logger.Error("Runnable panicked", "thread", t.id, "panic", rec.Value)
		return rec.AsError()
	}
	return nil
}

// current reports whether the caller runs on this thread's goroutine.
func (t *workerThread) current() bool {
	owner := t.owner.Load()
	return owner != 0 && owner == goroutineID()
}

// goroutineID parses the id from the "goroutine N [state]:" stack header.
func goroutineID() uint64 {
	var buf [64]byte
	fields := bytes.Fields(buf[:runtime.Stack(buf[:], false)])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// ID returns the thread identifier.
func (t *workerThread) ID() string {
	return t.id
}

// Dispatch queues r. In DispatchSync mode it waits for r to finish or ctx to
// end; a sync dispatch from the thread itself runs r inline.
func (t *workerThread) Dispatch(ctx context.Context, r hosttypes.Runnable, mode hosttypes.DispatchMode) error {
	if r == nil {
		return hosttypes.NewError("Thread.Dispatch", hosttypes.KindInvalidArgument, "nil runnable")
	}
	if mode == hosttypes.DispatchSync && t.current() {
		if !t.Alive() {
			return hosttypes.NewError("Thread.Dispatch", hosttypes.KindUnavailable, "thread %s is shut down", t.id)
		}
		return t.run(r)
	}

	tk := task{r: r}
	if mode == hosttypes.DispatchSync {
		tk.done = make(chan error, 1)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return hosttypes.NewError("Thread.Dispatch", hosttypes.KindUnavailable, "thread %s is shut down", t.id)
	}
	t.queue = append(t.queue, tk)
	t.cond.Signal()
	t.mu.Unlock()

	if tk.done == nil {
		return nil
	}
	select {
	case err := <-tk.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown drains queued work and stops the thread.
func (t *workerThread) Shutdown() {
	t.mu.Lock()
	t.closed = true
	t.cond.Broadcast()
	t.mu.Unlock()
	t.wg.Wait()
}

// Alive reports whether the thread still accepts work.
func (t *workerThread) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// ThreadService creates worker threads. The main thread is created on first use.
type ThreadService struct {
	mu      sync.Mutex
	main    *derive.Singleton[*workerThread]
	workers []*workerThread
	closed  bool
	newID   func() string
}

// NewThreadService creates a thread manager.
func NewThreadService() *ThreadService {
	return &ThreadService{
		main:  derive.NewSingleton(func() *workerThread { return newWorkerThread("main") }),
		newID: uuid.NewString,
	}
}

// Name returns the service name "thread-manager" for registration.
func (s *ThreadService) Name() string {
	return "thread-manager"
}

// Initialize is a no-op.
func (s *ThreadService) Initialize() error {
	return nil
}

// MainThread returns the shared main thread.
func (s *ThreadService) MainThread() hosttypes.Thread {
	return s.main.Get()
}

// NewThread starts a worker thread.
func (s *ThreadService) NewThread() (hosttypes.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("thread manager is shut down")
	}
	t := newWorkerThread(s.newID())
	s.workers = append(s.workers, t)
	return t, nil
}

// Alive reports whether the manager can still create threads.
func (s *ThreadService) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Shutdown stops every worker and the main thread.
func (s *ThreadService) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	workers := s.workers
	s.workers = nil
	s.mu.Unlock()

	var wg conc.WaitGroup
	for _, w := range workers {
		wg.Go(w.Shutdown)
	}
	wg.Go(s.main.Get().Shutdown)
	wg.Wait()
}
