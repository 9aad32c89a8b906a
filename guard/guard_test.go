package guard

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/loadwire/loadwire/models"
)

func publicLookup(string) ([]net.IP, error) {
	return []net.IP{net.ParseIP("93.184.216.34")}, nil
}

func newTestGuard(cfg Config) *Guard {
	g := New(cfg)
	g.SetLookup(publicLookup)
	return g
}

func TestGuard_BlocksInternalTargets(t *testing.T) {
	g := newTestGuard(Config{Burst: 100})

	blocked := []string{
		"http://localhost/admin",
		"http://localhost:8080/",
		"http://127.0.0.1/",
		"http://0.0.0.0:9090/",
		"http://[::1]/",
		"http://10.0.0.5/status",
		"http://172.16.3.1/",
		"http://192.168.1.1/router",
		"http://169.254.169.254/latest/meta-data/",
		"http://foo.localhost/",
		"http://db.internal/",
		"http://printer.local/",
		"http://intranet/", // no TLD
	}
	for _, u := range blocked {
		if err := g.Authorize(u); models.CodeOf(err) != models.ErrCodeBlockedTarget {
			t.Errorf("Authorize(%q) = %v, want BLOCKED_TARGET", u, err)
		}
	}
}

func TestGuard_BlocksViaDNSResolution(t *testing.T) {
	g := New(Config{Burst: 100})
	g.SetLookup(func(string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("10.1.2.3")}, nil
	})

	err := g.Authorize("http://rebind.example.com/")
	if models.CodeOf(err) != models.ErrCodeBlockedTarget {
		t.Fatalf("hostname resolving to a private address must be blocked, got: %v", err)
	}
}

func TestGuard_DNSFailureIsNotADenial(t *testing.T) {
	g := New(Config{Burst: 100})
	g.SetLookup(func(string) ([]net.IP, error) {
		return nil, errors.New("no such host")
	})

	if err := g.Authorize("http://nxdomain.example.com/"); err != nil {
		t.Fatalf("unresolvable host should pass admission and fail later: %v", err)
	}
}

func TestGuard_RejectsNonHTTPSchemes(t *testing.T) {
	g := newTestGuard(Config{Burst: 100})

	for _, u := range []string{"ftp://example.com/", "file:///etc/passwd", "gopher://example.com/"} {
		if err := g.Authorize(u); models.CodeOf(err) != models.ErrCodeInvalidInput {
			t.Errorf("Authorize(%q) = %v, want INVALID_INPUT", u, err)
		}
	}
}

func TestGuard_AllowsPublicTargets(t *testing.T) {
	g := newTestGuard(Config{Burst: 100})

	for _, u := range []string{"https://example.com/page", "http://news.example.org:8080/a?b=c"} {
		if err := g.Authorize(u); err != nil {
			t.Errorf("Authorize(%q) = %v, want nil", u, err)
		}
	}
}

func TestGuard_RateLimitsPerDomain(t *testing.T) {
	g := newTestGuard(Config{RatePerSecond: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		if err := g.Authorize("https://example.com/"); err != nil {
			t.Fatalf("request %d within burst should pass: %v", i+1, err)
		}
	}
	if err := g.Authorize("https://example.com/"); models.CodeOf(err) != models.ErrCodeRateLimited {
		t.Fatalf("expected RATE_LIMITED past burst, got: %v", err)
	}

	// A different domain has its own bucket.
	if err := g.Authorize("https://other.example.org/"); err != nil {
		t.Fatalf("other domain must not share the bucket: %v", err)
	}
}

func TestGuard_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := newTestGuard(Config{Burst: 100, BreakerThreshold: 3, BreakerCooldown: time.Minute})
	g.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		g.RecordOutcome("example.com", false)
	}
	if err := g.Authorize("https://example.com/"); models.CodeOf(err) != models.ErrCodeCircuitOpen {
		t.Fatalf("expected CIRCUIT_OPEN after threshold failures, got: %v", err)
	}

	// After the cooldown exactly one probe is admitted.
	now = now.Add(61 * time.Second)
	if err := g.Authorize("https://example.com/"); err != nil {
		t.Fatalf("half-open probe should be admitted: %v", err)
	}
	if err := g.Authorize("https://example.com/"); models.CodeOf(err) != models.ErrCodeCircuitOpen {
		t.Fatalf("second request during half-open probe must be denied, got: %v", err)
	}

	// A successful probe closes the circuit.
	g.RecordOutcome("example.com", true)
	if err := g.Authorize("https://example.com/"); err != nil {
		t.Fatalf("circuit should be closed after successful probe: %v", err)
	}
}

func TestGuard_FailedHalfOpenProbeReopens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := newTestGuard(Config{Burst: 100, BreakerThreshold: 3, BreakerCooldown: time.Minute})
	g.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		g.RecordOutcome("example.com", false)
	}
	now = now.Add(61 * time.Second)
	if err := g.Authorize("https://example.com/"); err != nil {
		t.Fatalf("half-open probe should be admitted: %v", err)
	}
	g.RecordOutcome("example.com", false)

	if err := g.Authorize("https://example.com/"); models.CodeOf(err) != models.ErrCodeCircuitOpen {
		t.Fatalf("failed probe must reopen the circuit, got: %v", err)
	}
}

func TestGuard_LostHalfOpenProbeDoesNotWedgeDomain(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := newTestGuard(Config{Burst: 100, BreakerThreshold: 3, BreakerCooldown: time.Minute})
	g.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		g.RecordOutcome("example.com", false)
	}
	now = now.Add(61 * time.Second)
	if err := g.Authorize("https://example.com/"); err != nil {
		t.Fatalf("half-open probe should be admitted: %v", err)
	}

	// The probe never reports an outcome. Within the cooldown the domain
	// stays guarded, but after a full cooldown a fresh probe goes out.
	now = now.Add(30 * time.Second)
	if err := g.Authorize("https://example.com/"); models.CodeOf(err) != models.ErrCodeCircuitOpen {
		t.Fatalf("domain should stay guarded while the probe window is live, got: %v", err)
	}
	now = now.Add(31 * time.Second)
	if err := g.Authorize("https://example.com/"); err != nil {
		t.Fatalf("a lost probe must not deny the domain forever: %v", err)
	}
}

func TestGuard_SuccessResetsFailureCount(t *testing.T) {
	g := newTestGuard(Config{Burst: 100, BreakerThreshold: 3})

	g.RecordOutcome("example.com", false)
	g.RecordOutcome("example.com", false)
	g.RecordOutcome("example.com", true)
	g.RecordOutcome("example.com", false)
	g.RecordOutcome("example.com", false)

	if err := g.Authorize("https://example.com/"); err != nil {
		t.Fatalf("non-consecutive failures must not open the circuit: %v", err)
	}
}

func TestGuard_EvictsLeastRecentlySeenDomain(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := newTestGuard(Config{Burst: 100, MaxDomains: 2})
	g.SetClock(func() time.Time { return now })

	_ = g.Authorize("https://a.example.com/")
	now = now.Add(time.Second)
	_ = g.Authorize("https://b.example.com/")
	now = now.Add(time.Second)
	_ = g.Authorize("https://c.example.com/")

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.domains) != 2 {
		t.Fatalf("domain map should stay at capacity 2, got %d", len(g.domains))
	}
	if _, present := g.domains["a.example.com"]; present {
		t.Error("oldest domain should have been evicted")
	}
}

func TestGuard_DomainSpreadCap(t *testing.T) {
	g := newTestGuard(Config{MaxBatchDomains: 2})

	urls := []string{
		"https://a.example.com/1",
		"https://a.example.com/2",
		"https://b.example.com/",
	}
	if err := g.CheckDomainSpread(urls); err != nil {
		t.Fatalf("two distinct domains should pass: %v", err)
	}

	urls = append(urls, "https://c.example.com/")
	if err := g.CheckDomainSpread(urls); models.CodeOf(err) != models.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT past the domain cap, got: %v", err)
	}
}

func TestDomain_Extraction(t *testing.T) {
	cases := map[string]string{
		"https://Example.COM/page":    "example.com",
		"http://sub.example.org:8080": "sub.example.org",
		"not a url at all ::":         "unknown",
	}
	for in, want := range cases {
		if got := Domain(in); got != want {
			t.Errorf("Domain(%q) = %q, want %q", in, got, want)
		}
	}
}
