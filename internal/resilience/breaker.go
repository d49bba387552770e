// Package resilience provides retry and circuit breaking for calls to the
// language-model providers.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// State is the state of a Breaker.
type State int

const (
	// Closed lets calls through.
	Closed State = iota
	// Open rejects calls until the cooldown elapses.
	Open
	// HalfOpen lets one probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker rejects a call.
var ErrOpen = eris.New("resilience: circuit open")

// BreakerConfig controls a Breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive counted failures that opens
	// the circuit. Default 5.
	Threshold int

	// Cooldown is how long the circuit stays open. Default 30s.
	Cooldown time.Duration

	// Counts decides whether an error counts toward Threshold. Defaults to
	// IsTransient, so client errors such as a bad request never trip it.
	Counts func(err error) bool

	// OnStateChange runs on every transition, under the breaker lock.
	OnStateChange func(from, to State)
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewBreaker creates a closed Breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Counts == nil {
		cfg.Counts = IsTransient
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Do runs fn unless the circuit is open.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Guard(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Guard runs fn through b and returns its value.
func Guard[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}
	defer func() {
		if r := recover(); r != nil {
			b.abandon()
			panic(r)
		}
	}()
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrOpen
		}
		b.transition(HalfOpen)
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil || !b.cfg.Counts(err) {
		b.failures = 0
		if b.state == HalfOpen {
			b.transition(Closed)
		}
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.cfg.Threshold {
		b.openedAt = b.now()
		b.transition(Open)
	}
}

// abandon releases a call that panicked. A half-open probe reopens the
// circuit; a panic in the closed state is not counted.
func (b *Breaker) abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if b.state == HalfOpen {
		b.openedAt = b.now()
		b.transition(Open)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
