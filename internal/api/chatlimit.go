package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Guardian-angel chat is the one endpoint that costs an oracle call: every
// delivered message interrupts the pookie and triggers a fresh decision on
// the next tick. ChatLimiter bounds how fast a single caller may poke a
// single pookie, keyed by client IP and pookie name, using a sliding window
// of delivery timestamps. Two guardians advising different pookies never
// contend for the same budget.
type ChatLimiter struct {
	mu        sync.Mutex
	history   map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// NewChatLimiter allows limit deliveries per window for each (caller,
// pookie) pair.
func NewChatLimiter(limit int, window time.Duration) *ChatLimiter {
	return &ChatLimiter{
		history: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Allow records one delivery attempt and reports whether it is within the
// budget for this caller and pookie.
func (l *ChatLimiter) Allow(ip, pookie string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)

	key := chatKey(ip, pookie)
	recent := withinWindow(l.history[key], now, l.window)
	if len(recent) >= l.limit {
		l.history[key] = recent
		return false
	}
	l.history[key] = append(recent, now)
	return true
}

// RetryAfter returns how long until the oldest recorded delivery for this
// caller and pookie falls out of the window. Zero when nothing is recorded.
func (l *ChatLimiter) RetryAfter(ip, pookie string) time.Duration {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := withinWindow(l.history[chatKey(ip, pookie)], now, l.window)
	if len(recent) == 0 {
		return 0
	}
	return recent[0].Add(l.window).Sub(now)
}

func chatKey(ip, pookie string) string {
	return ip + "|" + pookie
}

func withinWindow(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	for i, ts := range stamps {
		if ts.After(cutoff) {
			return stamps[i:]
		}
	}
	return nil
}

// sweepLocked drops keys whose whole history has aged out, at most once per
// window, so idle callers don't accumulate forever.
func (l *ChatLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, stamps := range l.history {
		if len(withinWindow(stamps, now, l.window)) == 0 {
			delete(l.history, key)
		}
	}
}

// clientIP extracts the caller address for rate-limit keying: the first
// X-Forwarded-For hop when present, otherwise the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if i := strings.IndexByte(xff, ','); i >= 0 {
			first = xff[:i]
		}
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
