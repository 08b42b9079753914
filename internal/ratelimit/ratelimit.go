// Package ratelimit implements a fixed-window request governor for the
// credential endpoints. It is a coarse, single-process, best-effort limiter:
// state lives in memory only and is lost on restart.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Policy bounds how many requests a key may make inside one window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of an admit check. RetryAfter is set only on
// denial and counts whole seconds until the window resets.
type Decision struct {
	Allowed    bool
	RetryAfter int
}

type entry struct {
	count     int
	resetTime time.Time
}

// Limiter tracks request counts per key. Key construction is the caller's
// responsibility; different endpoints must never share a budget.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	stop    chan struct{}
}

// New creates a Limiter on the system clock.
func New() *Limiter {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Limiter with an injected time source, so tests can
// advance time deterministically.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Admit checks the key against the policy, counting this request. The whole
// read-modify-write runs under one lock so two concurrent requests can never
// both slip past the limit.
func (l *Limiter) Admit(key string, p Policy) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.resetTime) {
		l.entries[key] = &entry{count: 1, resetTime: now.Add(p.Window)}
		return Decision{Allowed: true}
	}

	if e.count >= p.MaxRequests {
		retry := int(math.Ceil(e.resetTime.Sub(now).Seconds()))
		return Decision{RetryAfter: retry}
	}

	e.count++
	return Decision{Allowed: true}
}

// Sweep removes every entry whose window has already elapsed, bounding memory
// growth from abandoned keys.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.After(e.resetTime) {
			delete(l.entries, key)
		}
	}
}

// StartSweeper runs Sweep on a fixed interval until Stop is called.
func (l *Limiter) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine. Safe to call once.
func (l *Limiter) Stop() {
	close(l.stop)
}

// Len reports the number of tracked keys. Used by tests and the sweeper's
// own bookkeeping.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
