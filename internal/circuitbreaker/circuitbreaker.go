// Package circuitbreaker provides a typed wrapper around sony/gobreaker.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultMaxRequests         = 3
	defaultInterval            = 60 * time.Second
	defaultTimeout             = 30 * time.Second
	defaultConsecutiveFailures = 5
)

// Config holds circuit breaker settings.
type Config struct {
	// Name identifies the breaker in logs and state change callbacks.
	Name string
	// MaxRequests is the number of requests allowed through in half-open state.
	MaxRequests uint32
	// Interval is the cyclic period in closed state to clear counts.
	Interval time.Duration
	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker once reached.
	ConsecutiveFailures uint32
	// OnStateChange is called whenever the breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns a Config with sensible defaults for the given name.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         defaultMaxRequests,
		Interval:            defaultInterval,
		Timeout:             defaultTimeout,
		ConsecutiveFailures: defaultConsecutiveFailures,
	}
}

// CircuitBreaker wraps gobreaker with a typed Execute.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a circuit breaker from the given config.
func New[T any](cfg Config) *CircuitBreaker[T] {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = defaultConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: cfg.OnStateChange,
	}

	return &CircuitBreaker[T]{
		cb: gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Execute runs the given function if the breaker allows it.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// State returns the current state of the breaker.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}

// Counts returns a snapshot of the breaker's internal counters.
func (c *CircuitBreaker[T]) Counts() gobreaker.Counts {
	return c.cb.Counts()
}

// IsOpen reports whether the breaker is currently rejecting requests.
func (c *CircuitBreaker[T]) IsOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}
