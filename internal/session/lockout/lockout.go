// Package lockout tracks failed login attempts per identifier and hard-locks
// an identifier after too many failures inside the sliding window.
package lockout

import (
	"strings"
	"sync"
	"time"
)

const (
	defaultThreshold = 5
	defaultWindow    = 15 * time.Minute
	defaultLockFor   = 15 * time.Minute
)

type record struct {
	failures    []time.Time
	lockedUntil time.Time
}

// Tracker is an in-memory failure counter. Lockouts are advisory rate
// limiting, not durable state, so process restarts reset them.
type Tracker struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	lockFor   time.Duration
	clock     func() time.Time
	records   map[string]*record
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithThreshold sets how many failures inside the window trigger a lock.
func WithThreshold(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.threshold = n
		}
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		threshold: defaultThreshold,
		window:    defaultWindow,
		lockFor:   defaultLockFor,
		clock:     time.Now,
		records:   make(map[string]*record),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Locked reports whether the identifier is currently hard-locked.
func (t *Tracker) Locked(identifier string) (bool, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[key(identifier)]
	if !ok {
		return false, time.Time{}
	}
	now := t.clock()
	if now.Before(rec.lockedUntil) {
		return true, rec.lockedUntil
	}
	return false, time.Time{}
}

// RecordFailure counts one failed attempt and locks the identifier when the
// threshold is reached within the window.
func (t *Tracker) RecordFailure(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(identifier)
	rec, ok := t.records[k]
	if !ok {
		rec = &record{}
		t.records[k] = rec
	}
	now := t.clock()
	cutoff := now.Add(-t.window)
	kept := rec.failures[:0]
	for _, f := range rec.failures {
		if f.After(cutoff) {
			kept = append(kept, f)
		}
	}
	rec.failures = append(kept, now)
	if len(rec.failures) >= t.threshold {
		rec.lockedUntil = now.Add(t.lockFor)
		rec.failures = rec.failures[:0]
	}
}

// Clear forgets failures after a successful login.
func (t *Tracker) Clear(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, key(identifier))
}

func key(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
