package ratelimit

import (
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newLimiter(t *testing.T, perCaller, perIP int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := New(&Config{PerCaller: perCaller, PerIP: perIP, Window: time.Minute, Clock: clock})
	t.Cleanup(l.Close)
	return l, clock
}

func expectDenied(t *testing.T, got LimitResult, reason string, retry time.Duration) {
	t.Helper()
	if got.Allowed {
		t.Fatalf("expected denial, got %+v", got)
	}
	if got.Reason != reason || got.RetryAfter != retry {
		t.Fatalf("denial = %s after %s, want %s after %s", got.Reason, got.RetryAfter, reason, retry)
	}
}

func TestAllowPerCaller(t *testing.T) {
	l, clock := newLimiter(t, 3, 100)

	for i := 0; i < 3; i++ {
		if !l.Allow(7, "203.0.113.1").Allowed {
			t.Fatalf("call %d denied", i+1)
		}
	}
	expectDenied(t, l.Allow(7, "203.0.113.2"), "caller_limit", time.Minute)

	if !l.Allow(8, "203.0.113.1").Allowed {
		t.Fatal("other callers keep their budget")
	}

	clock.Advance(40 * time.Second)
	expectDenied(t, l.Allow(7, "203.0.113.1"), "caller_limit", 20*time.Second)

	clock.Advance(20 * time.Second)
	if !l.Allow(7, "203.0.113.1").Allowed {
		t.Fatal("window should have reopened")
	}
}

func TestAllowPerIP(t *testing.T) {
	l, _ := newLimiter(t, 100, 2)

	if !l.Allow(1, "198.51.100.9").Allowed || !l.Allow(2, "198.51.100.9").Allowed {
		t.Fatal("calls within the IP budget denied")
	}
	expectDenied(t, l.Allow(3, "198.51.100.9"), "ip_limit", time.Minute)
	if !l.Allow(3, "198.51.100.10").Allowed {
		t.Fatal("a different IP has its own budget")
	}
}

func TestDeniedCallsSpendNothing(t *testing.T) {
	l, _ := newLimiter(t, 1, 1)

	if !l.Allow(1, "198.51.100.1").Allowed {
		t.Fatal("first call denied")
	}
	// Caller 1 is over budget; the new IP must not be charged for it.
	if l.Allow(1, "198.51.100.2").Allowed {
		t.Fatal("caller over budget was allowed")
	}
	if !l.Allow(2, "198.51.100.2").Allowed {
		t.Fatal("IP was charged for a denied call")
	}
}

func TestZeroBudgetDisablesLimit(t *testing.T) {
	l, _ := newLimiter(t, 0, 0)
	for i := 0; i < 500; i++ {
		if !l.Allow(1, "198.51.100.1").Allowed {
			t.Fatalf("call %d denied with limits disabled", i+1)
		}
	}
	if n := l.tracked(); n != 0 {
		t.Fatalf("tracked %d buckets with limits disabled", n)
	}
}

func TestPruneDropsClosedWindows(t *testing.T) {
	l, clock := newLimiter(t, 5, 5)

	l.Allow(1, "10.0.0.1")
	l.Allow(2, "10.0.0.2")
	if n := l.tracked(); n != 4 {
		t.Fatalf("tracked = %d, want 4", n)
	}

	clock.Advance(30 * time.Second)
	l.prune()
	if n := l.tracked(); n != 4 {
		t.Fatalf("open windows pruned: tracked = %d", n)
	}

	clock.Advance(31 * time.Second)
	l.prune()
	if n := l.tracked(); n != 0 {
		t.Fatalf("closed windows kept: tracked = %d", n)
	}
}

func TestConcurrentAllowHonoursBudget(t *testing.T) {
	l, _ := newLimiter(t, 50, 1000)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(42, "203.0.113.7").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := allowed.Load(); got != 50 {
		t.Fatalf("allowed %d calls, want 50", got)
	}
}

func TestNewDefaults(t *testing.T) {
	l := New(nil)
	defer l.Close()
	if l.window != time.Minute || l.budgets[0].limit != 60 || l.budgets[1].limit != 120 {
		t.Fatalf("defaults: window %s, caller %d, ip %d", l.window, l.budgets[0].limit, l.budgets[1].limit)
	}

	l2 := New(&Config{PerCaller: 1})
	defer l2.Close()
	if l2.window != time.Minute {
		t.Fatalf("zero window not defaulted: %s", l2.window)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l := New(nil)
	l.Close()
	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Close blocked")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		trustProxy bool
		want       string
	}{
		{name: "rightmost public hop", xff: "203.0.113.50, 10.0.0.1", remoteAddr: "10.0.0.1:4000", trustProxy: true, want: "203.0.113.50"},
		{name: "all hops private", xff: "192.168.1.1, 10.0.0.1", remoteAddr: "10.0.0.1:4000", trustProxy: true, want: "10.0.0.1"},
		{name: "x-real-ip", realIP: "203.0.113.51", remoteAddr: "10.0.0.1:4000", trustProxy: true, want: "203.0.113.51"},
		{name: "untrusted forwarded-for", xff: "1.2.3.4", remoteAddr: "192.168.1.100:4000", want: "192.168.1.100"},
		{name: "untrusted x-real-ip", realIP: "1.2.3.4", remoteAddr: "192.168.1.100:4000", want: "192.168.1.100"},
		{name: "trusted without headers", remoteAddr: "192.168.1.100:4000", trustProxy: true, want: "192.168.1.100"},
		{name: "remote addr without port", remoteAddr: "192.168.1.100", want: "192.168.1.100"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:4000", want: "2001:db8::1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/checkins/verify", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := GetClientIP(r, tc.trustProxy); got != tc.want {
				t.Fatalf("GetClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"10.0.0.1", "172.16.0.1", "172.31.255.255", "192.168.1.1", "127.0.0.1", "169.254.1.1", "::1", "fc00::1", "fe80::1", "::ffff:10.0.0.1", "::ffff:127.0.0.1"}
	public := []string{"203.0.113.50", "8.8.8.8", "172.32.0.1", "::ffff:8.8.8.8", "2001:4860:4860::8888", "invalid", ""}

	for _, ip := range private {
		if !isPrivateIP(ip) {
			t.Fatalf("%q should be private", ip)
		}
	}
	for _, ip := range public {
		if isPrivateIP(ip) {
			t.Fatalf("%q should not be private", ip)
		}
	}
}
