package derive

import "sync"

// Singleton lazily constructs a single value of T.
type Singleton[T any] struct {
	mu   sync.Mutex
	once *sync.Once
	ctor func() T
	v    T
}

// NewSingleton returns a singleton that calls ctor on first Get.
func NewSingleton[T any](ctor func() T) *Singleton[T] {
	return &Singleton[T]{ctor: ctor, once: &sync.Once{}}
}

// Get returns the value, constructing it once.
func (s *Singleton[T]) Get() T {
	s.mu.Lock()
	once := s.once
	s.mu.Unlock()

	once.Do(func() {
		v := s.ctor()
		s.mu.Lock()
		s.v = v
		s.mu.Unlock()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// Reset drops the value so the next Get constructs a new one.
// This is primarily for testing purposes.
func (s *Singleton[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.v = zero
	s.once = &sync.Once{}
}
