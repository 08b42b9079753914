package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var registrationPolicy = Policy{MaxRequests: 5, Window: 15 * time.Minute}

func TestAdmitWithinBudget(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock.Now)

	for i := 0; i < 5; i++ {
		d := l.Admit("1.2.3.4 /auth/register", registrationPolicy)
		if !d.Allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
}

func TestAdmitDeniesSixthRequest(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock.Now)

	for i := 0; i < 5; i++ {
		l.Admit("1.2.3.4 /auth/register", registrationPolicy)
	}

	d := l.Admit("1.2.3.4 /auth/register", registrationPolicy)
	if d.Allowed {
		t.Fatal("sixth request allowed, want denied")
	}
	if d.RetryAfter != 900 {
		t.Errorf("RetryAfter = %d, want 900", d.RetryAfter)
	}
}

func TestAdmitRetryAfterShrinks(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock.Now)

	for i := 0; i < 5; i++ {
		l.Admit("k", registrationPolicy)
	}

	clock.Advance(10 * time.Minute)
	d := l.Admit("k", registrationPolicy)
	if d.Allowed {
		t.Fatal("request inside window allowed, want denied")
	}
	if d.RetryAfter != 300 {
		t.Errorf("RetryAfter = %d, want 300", d.RetryAfter)
	}
}

func TestAdmitResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock.Now)

	for i := 0; i < 6; i++ {
		l.Admit("k", registrationPolicy)
	}

	clock.Advance(15*time.Minute + time.Second)
	d := l.Admit("k", registrationPolicy)
	if !d.Allowed {
		t.Fatal("request after window elapsed denied, want allowed with fresh window")
	}

	// fresh window: four more fit, the sixth is denied again
	for i := 0; i < 4; i++ {
		if d := l.Admit("k", registrationPolicy); !d.Allowed {
			t.Fatalf("request %d of fresh window denied", i+2)
		}
	}
	if d := l.Admit("k", registrationPolicy); d.Allowed {
		t.Fatal("budget of fresh window not enforced")
	}
}

func TestAdmitKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock.Now)

	for i := 0; i < 5; i++ {
		l.Admit("1.2.3.4 /auth/register", registrationPolicy)
	}

	if d := l.Admit("5.6.7.8 /auth/register", registrationPolicy); !d.Allowed {
		t.Error("exhausting one key denied a different key")
	}
	if d := l.Admit("1.2.3.4 /auth/verify-credentials", registrationPolicy); !d.Allowed {
		t.Error("exhausting one endpoint denied a different endpoint for the same caller")
	}
}

func TestSweepEvictsExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock.Now)

	l.Admit("old", registrationPolicy)
	clock.Advance(16 * time.Minute)
	l.Admit("fresh", registrationPolicy)

	l.Sweep()
	if got := l.Len(); got != 1 {
		t.Errorf("Len() after sweep = %d, want 1", got)
	}
}

func TestAdmitConcurrentNeverOverAdmits(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock.Now)
	policy := Policy{MaxRequests: 5, Window: time.Minute}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := l.Admit("shared", policy); d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 5 {
		t.Errorf("allowed = %d, want exactly 5", allowed)
	}
}
