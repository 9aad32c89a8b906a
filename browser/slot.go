package browser

import (
	"sync"
	"time"

	"github.com/go-rod/rod"
)

// Health is the lifecycle state of a slot's browser process.
type Health int

const (
	// Healthy slots passed their last probe or returned cleanly.
	Healthy Health = iota

	// Suspect slots ended a session in an unknown state (abandoned
	// deadline); they are probed before the next handout.
	Suspect

	// Dead slots lost their browser process or CDP channel and must be
	// recreated before reuse.
	Dead
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Suspect:
		return "suspect"
	default:
		return "dead"
	}
}

// Slot is one external browser-process handle. It is owned by the pool:
// only pool operations mutate it, and while checked out exactly one
// session uses its browser connection.
type Slot struct {
	id int

	mu        sync.Mutex
	browser   *rod.Browser
	createdAt time.Time
	health    Health
	failures  int // consecutive connection-class failures
}

func (s *Slot) setHealth(h Health) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = h
	if h == Healthy {
		s.failures = 0
	}
}

func (s *Slot) recordConnectionFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	s.health = Dead
}

func (s *Slot) currentHealth() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// replaceBrowser installs a freshly-launched process on the slot. The
// caller holds exclusive use of the slot (checked out), so only the
// slot lock is needed.
func (s *Slot) replaceBrowser(b *rod.Browser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browser = b
	s.createdAt = time.Now()
	s.health = Healthy
	s.failures = 0
}

// Session is a checked-out unit of work bound to exactly one slot for the
// duration of one extraction. It is never shared across concurrent
// requests.
type Session struct {
	slot *Slot
	page *rod.Page

	mu       sync.Mutex
	returned bool
}

// Page returns the session's page handle. The caller has exclusive use of
// the underlying browser connection until Return.
func (s *Session) Page() *rod.Page {
	return s.page
}

// markReturned reports whether this is the first return of the session.
func (s *Session) markReturned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.returned {
		return false
	}
	s.returned = true
	return true
}
