// Package guard performs per-domain admission control: SSRF target
// blocking, token-bucket rate limiting, and circuit breaking.
package guard

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/loadwire/loadwire/models"
)

// Config controls admission behavior. Thresholds are operator inputs,
// not constants.
type Config struct {
	// RatePerSecond is the per-domain token bucket refill rate.
	RatePerSecond float64

	// Burst is the per-domain token bucket capacity.
	Burst int

	// BreakerThreshold is the consecutive-failure count that opens a
	// domain's circuit.
	BreakerThreshold int

	// BreakerCooldown is how long an open circuit blocks dispatch.
	BreakerCooldown time.Duration

	// MaxDomains caps the tracked domain map. When full, the
	// least-recently-seen domain is evicted.
	MaxDomains int

	// MaxBatchDomains caps how many distinct domains a batch may span.
	MaxBatchDomains int
}

// LookupFunc resolves a hostname to its addresses. Injectable for tests.
type LookupFunc func(host string) ([]net.IP, error)

type domainState struct {
	limiter  *rate.Limiter
	breaker  *breaker
	lastSeen time.Time
}

// Guard holds per-domain admission state. It is safe for concurrent use.
type Guard struct {
	cfg    Config
	lookup LookupFunc
	now    func() time.Time

	mu      sync.Mutex
	domains map[string]*domainState
}

// blockedHosts are hostnames that always denote internal targets.
var blockedHosts = map[string]struct{}{
	"localhost":                {},
	"127.0.0.1":                {},
	"0.0.0.0":                  {},
	"::1":                      {},
	"metadata.google.internal": {},
}

// New creates a Guard with defaults filled in for zero config fields.
func New(cfg Config) *Guard {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.MaxDomains <= 0 {
		cfg.MaxDomains = 10000
	}
	if cfg.MaxBatchDomains <= 0 {
		cfg.MaxBatchDomains = 200
	}
	return &Guard{
		cfg:     cfg,
		lookup:  net.LookupIP,
		now:     time.Now,
		domains: make(map[string]*domainState),
	}
}

// SetLookup replaces the DNS resolver. Intended for tests.
func (g *Guard) SetLookup(fn LookupFunc) { g.lookup = fn }

// SetClock replaces the time source. Intended for tests.
func (g *Guard) SetClock(fn func() time.Time) { g.now = fn }

// Domain extracts the admission key for a URL: the lowercased host.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Authorize admits or denies one dispatch to the URL's domain. The SSRF
// check always runs first, so a blocked target is denied regardless of
// limiter or circuit state. The rate limiter is consulted independently
// of the circuit.
func (g *Guard) Authorize(rawURL string) error {
	host, err := g.validateTarget(rawURL)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.stateLocked(host)
	now := g.now()

	if !st.breaker.allow(now) {
		slog.Warn("guard: circuit open", "domain", host)
		return models.NewLoadError(models.ErrCodeCircuitOpen,
			fmt.Sprintf("circuit open for domain %s", host), nil)
	}

	if !st.limiter.AllowN(now, 1) {
		slog.Warn("guard: rate limited", "domain", host)
		return models.NewLoadError(models.ErrCodeRateLimited,
			fmt.Sprintf("rate limit exceeded for domain %s", host), nil)
	}

	return nil
}

// RecordOutcome feeds a completed dispatch back into the domain's
// circuit breaker.
func (g *Guard) RecordOutcome(domain string, success bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.stateLocked(domain)
	before := st.breaker.state
	st.breaker.record(success, g.now())
	if st.breaker.state != before {
		slog.Info("guard: circuit transition", "domain", domain,
			"from", before.String(), "to", st.breaker.state.String())
	}
}

// CheckDomainSpread rejects batches spanning more distinct domains than
// the configured cap.
func (g *Guard) CheckDomainSpread(urls []string) error {
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		seen[Domain(u)] = struct{}{}
	}
	if len(seen) > g.cfg.MaxBatchDomains {
		return models.NewLoadError(models.ErrCodeInvalidInput,
			fmt.Sprintf("batch spans %d domains, limit is %d", len(seen), g.cfg.MaxBatchDomains), nil)
	}
	return nil
}

// validateTarget parses the URL and applies the SSRF policy: http(s)
// only, no internal hostnames, no loopback/private/link-local addresses
// whether given literally or reached through DNS.
func (g *Guard) validateTarget(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", models.NewLoadError(models.ErrCodeInvalidInput, "invalid URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", models.NewLoadError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unsupported scheme %q, only http and https are allowed", u.Scheme), nil)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", models.NewLoadError(models.ErrCodeInvalidInput, "URL has no host", nil)
	}

	if _, blocked := blockedHosts[host]; blocked {
		return "", blockedTarget(host)
	}
	for suffix := range blockedHosts {
		if strings.HasSuffix(host, "."+suffix) {
			return "", blockedTarget(host)
		}
	}
	if strings.HasSuffix(host, ".internal") || strings.HasSuffix(host, ".local") {
		return "", blockedTarget(host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isInternalIP(ip) {
			return "", blockedTarget(host)
		}
		return host, nil
	}

	// Hostnames without a dot can't be public registrable names.
	if !strings.Contains(host, ".") {
		return "", blockedTarget(host)
	}

	if g.lookup != nil {
		ips, err := g.lookup(host)
		if err != nil {
			// Resolution failure surfaces later as a navigation error;
			// admission only blocks what it can prove is internal.
			return host, nil
		}
		for _, ip := range ips {
			if isInternalIP(ip) {
				return "", blockedTarget(host)
			}
		}
	}

	return host, nil
}

func blockedTarget(host string) error {
	return models.NewLoadError(models.ErrCodeBlockedTarget,
		fmt.Sprintf("access to %s is not allowed", host), nil)
}

func isInternalIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// stateLocked returns the domain's state, creating it lazily and
// evicting the least-recently-seen domain when the map is at capacity.
// Caller must hold g.mu.
func (g *Guard) stateLocked(domain string) *domainState {
	st, ok := g.domains[domain]
	if !ok {
		if len(g.domains) >= g.cfg.MaxDomains {
			g.evictOldestLocked()
		}
		st = &domainState{
			limiter: rate.NewLimiter(rate.Limit(g.cfg.RatePerSecond), g.cfg.Burst),
			breaker: newBreaker(g.cfg.BreakerThreshold, g.cfg.BreakerCooldown),
		}
		g.domains[domain] = st
	}
	st.lastSeen = g.now()
	return st
}

func (g *Guard) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, st := range g.domains {
		if first || st.lastSeen.Before(oldest) {
			oldestKey, oldest = k, st.lastSeen
			first = false
		}
	}
	if oldestKey != "" {
		delete(g.domains, oldestKey)
		slog.Debug("guard: evicted domain state", "domain", oldestKey)
	}
}
