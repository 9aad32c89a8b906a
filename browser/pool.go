package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"

	"github.com/loadwire/loadwire/models"
)

// LaunchFunc spawns one browser process and connects to it. Each call
// must produce a fresh process; launchers are single-use.
type LaunchFunc func() (*rod.Browser, error)

// NewPageFunc opens a fresh page on a slot's browser within timeout. It
// doubles as the checkout liveness probe: a browser that cannot open a
// page within the probe timeout is treated as dead.
type NewPageFunc func(b *rod.Browser, timeout time.Duration) (*rod.Page, error)

// Config controls the pool's fixed capacity and timing.
type Config struct {
	// Size is the fixed number of slots.
	Size int

	// CheckoutTimeout bounds how long Checkout waits for a free slot.
	CheckoutTimeout time.Duration

	// ProbeTimeout bounds the pre-handout liveness probe.
	ProbeTimeout time.Duration
}

// ErrClosed is returned by Checkout after Close.
var ErrClosed = errors.New("browser pool closed")

// Pool maintains a fixed-capacity set of browser slots, each wrapping one
// external browser process. Dead connections are never silently reused:
// every handout is preceded by a cheap liveness probe, and a failed probe
// recreates the slot's process in place before the caller sees it.
type Pool struct {
	cfg     Config
	launch  LaunchFunc
	newPage NewPageFunc

	idle  chan *Slot
	slots []*Slot // fixed after construction

	checkedOut  atomic.Int32
	recreations atomic.Int64
	closed      atomic.Bool
}

// New creates the pool and eagerly launches one browser process per slot.
// If any launch fails the already-started processes are torn down and the
// error is returned.
func New(cfg Config, launch LaunchFunc, newPage NewPageFunc) (*Pool, error) {
	if cfg.Size < 1 {
		cfg.Size = 1
	}
	if cfg.CheckoutTimeout <= 0 {
		cfg.CheckoutTimeout = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}

	p := &Pool{
		cfg:     cfg,
		launch:  launch,
		newPage: newPage,
		idle:    make(chan *Slot, cfg.Size),
		slots:   make([]*Slot, 0, cfg.Size),
	}

	for i := 0; i < cfg.Size; i++ {
		b, err := launch()
		if err != nil {
			p.Close()
			return nil, models.NewLoadError(models.ErrCodeBrowserGone,
				"failed to launch browser for pool slot", err)
		}
		s := &Slot{id: i, browser: b, createdAt: time.Now(), health: Healthy}
		p.slots = append(p.slots, s)
		p.idle <- s
		slog.Debug("pool: slot launched", "slot", i)
	}

	slog.Info("pool: initialised", "size", cfg.Size)
	return p, nil
}

// Checkout blocks until a slot is free or the checkout timeout elapses.
// The returned session has passed a liveness probe; if the probe fails
// the slot is recreated in place and probed once more before giving up
// with BROWSER_UNAVAILABLE.
func (p *Pool) Checkout(ctx context.Context) (*Session, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}

	timer := time.NewTimer(p.cfg.CheckoutTimeout)
	defer timer.Stop()

	var slot *Slot
	select {
	case slot = <-p.idle:
	case <-ctx.Done():
		return nil, models.NewLoadError(models.ErrCodePoolExhausted,
			"request canceled while waiting for a browser slot", ctx.Err())
	case <-timer.C:
		return nil, models.NewLoadError(models.ErrCodePoolExhausted,
			"no browser slot became available in time", nil)
	}

	p.checkedOut.Add(1)
	sess, err := p.activate(slot)
	if err != nil {
		// The slot stays in rotation; a later checkout retries recreation.
		p.checkedOut.Add(-1)
		p.idle <- slot
		return nil, err
	}
	return sess, nil
}

// activate probes the slot and hands out a session. A slot already marked
// Dead is recreated before probing. A probe failure on a live-looking slot
// marks it Dead, recreates it, and retries the probe exactly once.
func (p *Pool) activate(slot *Slot) (*Session, error) {
	if slot.currentHealth() == Dead {
		if err := p.recreate(slot); err != nil {
			return nil, err
		}
	}

	page, err := p.newPage(slot.browser, p.cfg.ProbeTimeout)
	if err != nil {
		slog.Warn("pool: liveness probe failed, recreating slot",
			"slot", slot.id, "error", err)
		slot.recordConnectionFailure()
		if rerr := p.recreate(slot); rerr != nil {
			return nil, rerr
		}
		page, err = p.newPage(slot.browser, p.cfg.ProbeTimeout)
		if err != nil {
			slot.recordConnectionFailure()
			return nil, models.NewLoadError(models.ErrCodeBrowserGone,
				"recreated browser failed its liveness probe", err)
		}
	}

	slot.setHealth(Healthy)
	return &Session{slot: slot, page: page}, nil
}

// recreate destroys the slot's browser process and spawns a replacement
// in place. The recreation counter is monotonic and survives for the
// process lifetime.
func (p *Pool) recreate(slot *Slot) error {
	slot.mu.Lock()
	old := slot.browser
	slot.mu.Unlock()

	if old != nil {
		// Close can hang on a wedged process; don't block checkout on it.
		go func() { _ = old.Close() }()
	}

	b, err := p.launch()
	if err != nil {
		slog.Error("pool: slot recreation failed", "slot", slot.id, "error", err)
		return models.NewLoadError(models.ErrCodeBrowserGone,
			"failed to spawn replacement browser", err)
	}

	slot.replaceBrowser(b)
	n := p.recreations.Add(1)
	slog.Info("pool: slot recreated", "slot", slot.id, "recreations", n)
	return nil
}

// Return hands the session's slot back. Connection-class outcomes mark
// the slot Dead so the next checkout recreates it; deadline abandonment
// marks it Suspect (true state unknown); everything else returns the slot
// untouched. Return is idempotent.
func (p *Pool) Return(sess *Session, outcome error) {
	if sess == nil || !sess.markReturned() {
		return
	}

	slot := sess.slot
	switch {
	case outcome == nil:
		p.cleanupPage(sess)
		slot.setHealth(Healthy)
	case models.IsConnectionError(outcome):
		slot.recordConnectionFailure()
		slog.Warn("pool: connection failure on return, slot marked dead",
			"slot", slot.id, "error", outcome)
	case isDeadlineOutcome(outcome):
		p.cleanupPage(sess)
		slot.setHealth(Suspect)
	default:
		// Content-class failure; the browser itself is fine.
		p.cleanupPage(sess)
	}

	p.checkedOut.Add(-1)
	p.idle <- slot
}

// cleanupPage resets and closes the session page so slot reuse never
// leaks DOM state across requests.
func (p *Pool) cleanupPage(sess *Session) {
	if sess.page == nil {
		return
	}
	if err := sess.page.Navigate("about:blank"); err != nil {
		slog.Debug("pool: cleanup navigation failed", "error", err)
	}
	_ = sess.page.Close()
}

func isDeadlineOutcome(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	switch models.CodeOf(err) {
	case models.ErrCodeNavTimeout, models.ErrCodeSelectorTimeout:
		return true
	}
	return false
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() models.PoolStats {
	healthy := 0
	for _, s := range p.slots {
		if s.currentHealth() == Healthy {
			healthy++
		}
	}
	return models.PoolStats{
		Available:       len(p.idle),
		Total:           p.cfg.Size,
		Healthy:         healthy,
		RecreationCount: p.recreations.Load(),
	}
}

// Close drains the idle set and kills every browser process. Sessions
// still in flight are abandoned; their Return becomes a no-op push onto
// a drained channel and their processes die with the pool.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}

drain:
	for {
		select {
		case <-p.idle:
		default:
			break drain
		}
	}

	for _, s := range p.slots {
		s.mu.Lock()
		b := s.browser
		s.health = Dead
		s.mu.Unlock()
		if b != nil {
			_ = b.Close()
		}
	}
	slog.Info("pool: closed", "slots", len(p.slots))
}
