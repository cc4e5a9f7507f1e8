package services

import (
	"sync"

	"github.com/sourcegraph/conc/panics"

	"hostkit/internal/logger"
	"hostkit/pkg/hosttypes"
)

type observerEntry struct {
	id uint64
	fn hosttypes.ObserverFunc
}

// ObserverService is an in-process topic bus.
type ObserverService struct {
	mu        sync.RWMutex
	nextID    uint64
	observers map[string][]observerEntry
}

// NewObserverService creates a new ObserverService instance.
func NewObserverService() *ObserverService {
	return &ObserverService{observers: make(map[string][]observerEntry)}
}

// Name returns the service name "observer-service" for registration.
func (o *ObserverService) Name() string {
	return "observer-service"
}

// Initialize is a no-op.
func (o *ObserverService) Initialize() error {
	return nil
}

// AddObserver subscribes fn to topic and returns a function that removes it.
func (o *ObserverService) AddObserver(topic string, fn hosttypes.ObserverFunc) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	id := o.nextID
	o.observers[topic] = append(o.observers[topic], observerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { o.remove(topic, id) })
	}
}

func (o *ObserverService) remove(topic string, id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entries := o.observers[topic]
	for i, e := range entries {
		if e.id == id {
			o.observers[topic] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(o.observers[topic]) == 0 {
		delete(o.observers, topic)
	}
}

// NotifyObservers calls every observer of topic in subscription order.
// A panicking observer is logged and does not stop the others.
func (o *ObserverService) NotifyObservers(subject any, topic string, data string) {
	o.mu.RLock()
	entries := append([]observerEntry(nil), o.observers[topic]...)
	o.mu.RUnlock()

	for _, e := range entries {
		var pc panics.Catcher
		pc.Try(func() { e.fn(subject, topic, data) })
		if rec := pc.Recovered(); rec != nil {
			logger.Error("Observer panicked", "topic", topic, "error", rec.AsError())
		}
	}
}

// ObserverCount returns the number of observers of topic.
func (o *ObserverService) ObserverCount(topic string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.observers[topic])
}
