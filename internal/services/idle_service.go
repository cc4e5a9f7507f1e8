package services

import (
	"sync"
	"time"

	"hostkit/pkg/hosttypes"
)

type idleWatch struct {
	observer hosttypes.IdleObserver
	after    time.Duration
	fired    bool
}

// IdleService tracks time since the last user input. Observers are notified
// from Check, which the host calls periodically.
type IdleService struct {
	mu       sync.Mutex
	now      func() time.Time
	last     time.Time
	watchers []*idleWatch
}

// NewIdleService creates an idle tracker using now as its clock.
func NewIdleService(now func() time.Time) *IdleService {
	if now == nil {
		now = time.Now
	}
	return &IdleService{now: now, last: now()}
}

// Name returns the service name "idle-service" for registration.
func (s *IdleService) Name() string {
	return "idle-service"
}

// Initialize resets the idle timer.
func (s *IdleService) Initialize() error {
	s.mu.Lock()
	s.last = s.now()
	s.mu.Unlock()
	return nil
}

// IdleTime returns the time since the last input.
func (s *IdleService) IdleTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.last)
}

// AddIdleObserver registers o to be told after the user is idle for after.
func (s *IdleService) AddIdleObserver(o hosttypes.IdleObserver, after time.Duration) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, &idleWatch{observer: o, after: after})
}

// RemoveIdleObserver removes a registration made with the same observer and duration.
func (s *IdleService) RemoveIdleObserver(o hosttypes.IdleObserver, after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watchers {
		if w.observer == o && w.after == after {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}

// Touch records user input. Observers that saw the idle topic get the active topic.
func (s *IdleService) Touch() {
	s.mu.Lock()
	idle := s.now().Sub(s.last)
	s.last = s.now()
	var wake []*idleWatch
	for _, w := range s.watchers {
		if w.fired {
			w.fired = false
			wake = append(wake, w)
		}
	}
	s.mu.Unlock()

	for _, w := range wake {
		w.observer.ObserveIdle(hosttypes.TopicActive, idle)
	}
}

// Check notifies observers whose idle threshold has passed.
func (s *IdleService) Check() {
	s.mu.Lock()
	idle := s.now().Sub(s.last)
	var due []*idleWatch
	for _, w := range s.watchers {
		if !w.fired && idle >= w.after {
			w.fired = true
			due = append(due, w)
		}
	}
	s.mu.Unlock()

	for _, w := range due {
		w.observer.ObserveIdle(hosttypes.TopicIdle, idle)
	}
}
