package guard

import "time"

// breakerState is the per-domain circuit state.
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	default:
		return "half-open"
	}
}

// breaker is a consecutive-failure circuit breaker. It is not
// goroutine-safe on its own; the Guard serialises access per domain.
type breaker struct {
	threshold int
	cooldown  time.Duration

	state       breakerState
	failures    int
	lastFailure time.Time
	openedAt    time.Time
	probeAt     time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, state: stateClosed}
}

// allow reports whether a call may be dispatched now. After the cooldown
// elapses on an open circuit, exactly one caller is admitted as the
// half-open probe; everyone else keeps being refused until that probe's
// outcome is recorded.
//
// A probe can vanish without ever reporting an outcome: the admitted
// request may be answered from the cache, fail before reaching the
// browser, or be abandoned by its caller. If the half-open state
// outlives a full cooldown with no outcome, a fresh probe is admitted
// so a lost probe can never wedge the domain shut.
func (b *breaker) allow(now time.Time) bool {
	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if now.Sub(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			b.probeAt = now
			return true
		}
		return false
	default: // half-open
		if now.Sub(b.probeAt) >= b.cooldown {
			b.probeAt = now
			return true
		}
		return false
	}
}

// record feeds the outcome of a dispatched call back into the circuit.
// In half-open state the single probe's outcome alone decides: success
// closes the circuit and resets the count, failure reopens it and
// restarts the cooldown window.
func (b *breaker) record(success bool, now time.Time) {
	if success {
		b.state = stateClosed
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailure = now
	if b.state == stateHalfOpen || b.failures >= b.threshold {
		b.state = stateOpen
		b.openedAt = now
	}
}
