// Package ratelimit limits requests per client and route with token buckets.
package ratelimit

import (
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rule limits one method and path. A path ending in "/" matches by prefix.
type Rule struct {
	Method string
	Path   string
	Limit  int           // requests per Window; zero or less means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Default         Rule
	Rules           []Rule
	CleanupInterval time.Duration
	IdleTTL         time.Duration
}

// DefaultConfig limits analyses, which fan out to job sites and the LLM,
// far more strictly than reads.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Default: Rule{Limit: 300, Window: time.Minute},
		Rules: []Rule{
			{Method: "GET", Path: "/api/health"},
			{Method: "POST", Path: "/api/analyze", Limit: 20, Window: time.Hour, Burst: 3},
			{Method: "POST", Path: "/api/analyze/stream", Limit: 20, Window: time.Hour, Burst: 3},
		},
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
	}
}

// Match returns the rule for a request, falling back to the default rule.
func (c *Config) Match(method, path string) Rule {
	for _, r := range c.Rules {
		if r.Method == method && r.Path == path {
			return r
		}
	}
	for _, r := range c.Rules {
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return c.Default
}

// Info describes the outcome of Allow. Limit is zero for unlimited requests.
type Info struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages a bucket per client, method and path.
type Limiter struct {
	cfg  Config
	now  func() time.Time
	mu   sync.Mutex
	seen map[string]*bucket
	stop chan struct{}
	once sync.Once
}

// NewLimiter creates a Limiter and starts its idle-bucket cleanup.
func NewLimiter(cfg Config) *Limiter {
	l := &Limiter{cfg: cfg, now: time.Now, seen: make(map[string]*bucket), stop: make(chan struct{})}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow consumes a token for the client's request when one is available.
func (l *Limiter) Allow(clientID, method, path string) (bool, Info) {
	if !l.cfg.Enabled {
		return true, Info{}
	}
	rule := l.cfg.Match(method, path)
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{}
	}

	now := l.now()
	key := clientID + " " + method + " " + path

	l.mu.Lock()
	b, ok := l.seen[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.Limit
		}
		every := rule.Window / time.Duration(rule.Limit)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), burst)}
		l.seen[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	info := Info{Limit: rule.Limit}
	if b.limiter.AllowN(now, 1) {
		info.Remaining = int(math.Max(0, math.Floor(b.limiter.TokensAt(now))))
		return true, info
	}

	r := b.limiter.ReserveN(now, 1)
	info.RetryAfter = r.DelayFrom(now)
	r.CancelAt(now)
	return false, info
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets that have been idle longer than IdleTTL.
func (l *Limiter) cleanup() {
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.seen {
		if b.lastSeen.Before(cutoff) {
			delete(l.seen, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
