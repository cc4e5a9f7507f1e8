// Package testutils provides deterministic generators and utility functions for hostkit testing.
// These utilities ensure consistent test output while maintaining production format compatibility.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// Thread-safe counter for deterministic ID generation
	idCounter uint64
	idMutex   sync.Mutex

	// Thread-safe counter for deterministic timestamp generation
	timeCounter int64
	timeMutex   sync.Mutex
)

// GenerateUUID generates a UUID that is deterministic in test mode but random in production.
// In test mode, returns UUIDs in format: 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002, etc.
func GenerateUUID(testMode bool) string {
	if testMode {
		return getDeterministicUUID()
	}
	return uuid.New().String()
}

// GetCurrentTime returns the current time, deterministic in test mode but real in production.
// In test mode, returns incrementing time starting from 2025-01-01T00:00:01Z
func GetCurrentTime(testMode bool) time.Time {
	if testMode {
		return getDeterministicTime()
	}
	return time.Now()
}

// Clock returns a GetCurrentTime bound to testMode, for services that take a clock function.
func Clock(testMode bool) func() time.Time {
	return func() time.Time { return GetCurrentTime(testMode) }
}

// getDeterministicUUID generates a deterministic UUID maintaining UUID v4 format.
// Returns UUIDs like: 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002
func getDeterministicUUID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	idCounter++

	// Format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
	// Where 4 indicates version 4, and y is 8, 9, a, or b (we use 8 for simplicity)
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", idCounter, idCounter)
}

// getDeterministicTime generates incrementing deterministic timestamps for test mode.
// Each call returns a time that is 1 second later than the previous call.
// First call: 2025-01-01T00:00:00Z, second call: 2025-01-01T00:00:01Z, etc.
func getDeterministicTime() time.Time {
	timeMutex.Lock()
	defer timeMutex.Unlock()

	timeCounter++

	// Base time: 2025-01-01T00:00:00Z + timeCounter seconds
	baseTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return baseTime.Add(time.Duration(timeCounter) * time.Second)
}

// ResetTestCounters resets the deterministic counters for testing.
// This should only be called from test code to ensure consistent test runs.
func ResetTestCounters() {
	idMutex.Lock()
	timeMutex.Lock()
	defer idMutex.Unlock()
	defer timeMutex.Unlock()

	idCounter = 0
	timeCounter = 0
}

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewManualClock creates a clock starting at the deterministic epoch.
func NewManualClock() *ManualClock {
	return &ManualClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current clock time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
