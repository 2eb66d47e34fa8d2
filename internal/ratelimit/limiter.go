// Package ratelimit limits check-in verification lookups per caller and per
// client IP.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const sweepEvery = 5 * time.Minute

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config sets the per-window budgets. A zero budget disables that key space.
type Config struct {
	PerCaller int
	PerIP     int
	Window    time.Duration
	Clock     Clock
}

func DefaultConfig() *Config {
	return &Config{PerCaller: 60, PerIP: 120, Window: time.Minute}
}

// LimitResult reports whether a call may proceed. Reason names the budget
// that was exhausted.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

// bucket is one fixed window for one key.
type bucket struct {
	opened time.Time
	used   int
}

// budget is a named key space with its own limit.
type budget struct {
	name    string
	limit   int
	buckets map[string]*bucket
}

func newBudget(name string, limit int) *budget {
	return &budget{name: name, limit: limit, buckets: make(map[string]*bucket)}
}

// wait is how long key must hold off before spending again.
func (b *budget) wait(key string, now time.Time, window time.Duration) time.Duration {
	if b.limit <= 0 {
		return 0
	}
	bk, ok := b.buckets[key]
	if !ok || bk.used < b.limit {
		return 0
	}
	if age := now.Sub(bk.opened); age < window {
		return window - age
	}
	return 0
}

func (b *budget) spend(key string, now time.Time, window time.Duration) {
	if b.limit <= 0 {
		return
	}
	bk, ok := b.buckets[key]
	if !ok || now.Sub(bk.opened) >= window {
		b.buckets[key] = &bucket{opened: now, used: 1}
		return
	}
	bk.used++
}

func (b *budget) prune(now time.Time, window time.Duration) {
	for key, bk := range b.buckets {
		if now.Sub(bk.opened) >= window {
			delete(b.buckets, key)
		}
	}
}

// Limiter enforces a fixed-window budget per caller and per client IP.
// A background goroutine drops stale windows until Close.
type Limiter struct {
	window time.Duration
	clock  Clock

	mu       sync.Mutex
	budgets  []*budget
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Limiter{
		window: cfg.Window,
		clock:  cfg.Clock,
		budgets: []*budget{
			newBudget("caller_limit", cfg.PerCaller),
			newBudget("ip_limit", cfg.PerIP),
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if l.window <= 0 {
		l.window = time.Minute
	}
	if l.clock == nil {
		l.clock = systemClock{}
	}
	go l.sweep()
	return l
}

func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// Allow spends one call from the caller's and the IP's budgets. Nothing is
// spent when either budget is exhausted.
func (l *Limiter) Allow(callerID int64, ip string) LimitResult {
	keys := []string{
		digest(strconv.FormatInt(callerID, 10)),
		digest(strings.TrimSpace(ip)),
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, b := range l.budgets {
		if wait := b.wait(keys[i], now, l.window); wait > 0 {
			return LimitResult{RetryAfter: wait, Reason: b.name}
		}
	}
	for i, b := range l.budgets {
		b.spend(keys[i], now, l.window)
	}
	return LimitResult{Allowed: true}
}

func (l *Limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, b := range l.budgets {
		n += len(b.buckets)
	}
	return n
}

func (l *Limiter) prune() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.budgets {
		b.prune(now, l.window)
	}
}

func (l *Limiter) sweep() {
	defer close(l.done)
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

// digest keeps raw caller ids and addresses out of long-lived maps.
func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

// GetClientIP returns the address to rate limit r by. Forwarding headers are
// read only when trustProxy is set; X-Forwarded-For is scanned from the right
// for the first public hop.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip, ok := forwardedFor(r.Header.Get("X-Forwarded-For")); ok {
			return ip
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	return remoteHost(r.RemoteAddr)
}

func forwardedFor(header string) (string, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}
	hops := strings.Split(header, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !isPrivateIP(hop) {
			return hop, true
		}
	}
	return strings.TrimSpace(hops[len(hops)-1]), true
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().String()
	}
	if i := strings.LastIndex(addr, ":"); i > 0 {
		if ip, err := netip.ParseAddr(addr[:i]); err == nil {
			return ip.String()
		}
	}
	return addr
}

// isPrivateIP reports loopback, link-local and RFC 1918 / RFC 4193
// addresses. IPv4-mapped IPv6 addresses are unmapped first.
func isPrivateIP(s string) bool {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}

func LogRateLimitExceeded(callerID int64, ip, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Int64("caller_id", callerID).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Check-in verify rate limit exceeded")
}
