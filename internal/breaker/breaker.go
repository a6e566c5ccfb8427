package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type State uint8

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// ErrOpen is returned by Acquire when the breaker refuses the call, either
// because the circuit is open or because all half-open trial permits are
// taken.
var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	WindowSize           int
	FailureRateThreshold float64
	MinimumCalls         int
	OpenWaitDuration     time.Duration
	HalfOpenPermits      int
}

const (
	defaultWindowSize           = 5
	defaultFailureRateThreshold = 50
	defaultMinimumCalls         = 5
	defaultOpenWaitDuration     = 10 * time.Second
	defaultHalfOpenPermits      = 2
)

func (c Config) withDefaults() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = defaultWindowSize
	}
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = defaultFailureRateThreshold
	}
	if c.MinimumCalls <= 0 {
		c.MinimumCalls = defaultMinimumCalls
	}
	if c.OpenWaitDuration <= 0 {
		c.OpenWaitDuration = defaultOpenWaitDuration
	}
	if c.HalfOpenPermits <= 0 {
		c.HalfOpenPermits = defaultHalfOpenPermits
	}
	return c
}

// CircuitBreaker gates calls to one named dependency. It trips open once the
// failure rate over the sliding window crosses the threshold, rejects calls
// while open, and lets a limited number of trial calls through after the
// open-wait deadline. The OPEN to HALF_OPEN move happens lazily on the next
// Acquire; there is no background timer.
type CircuitBreaker struct {
	name   string
	config Config
	logger zerolog.Logger

	mu           sync.Mutex
	window       *slidingWindow
	state        State
	openedAt     time.Time
	halfOpenUsed int

	now func() time.Time
}

func New(name string, config Config, logger zerolog.Logger) *CircuitBreaker {
	config = config.withDefaults()
	return &CircuitBreaker{
		name:   name,
		config: config,
		logger: logger.With().Str("breaker", name).Logger(),
		window: newSlidingWindow(config.WindowSize),
		state:  StateClosed,
		now:    time.Now,
	}
}

// Acquire reports whether a call may be attempted. A rejected call must not
// record an outcome; callers fall back without touching the window.
func (cb *CircuitBreaker) Acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.OpenWaitDuration {
			return ErrOpen
		}
		cb.transition(StateHalfOpen)
		cb.halfOpenUsed = 1
		return nil
	case StateHalfOpen:
		if cb.halfOpenUsed >= cb.config.HalfOpenPermits {
			return ErrOpen
		}
		cb.halfOpenUsed++
		return nil
	default:
		return nil
	}
}

// Record appends the outcome of an attempted call and applies the state
// transition rules. During a half-open trial any failure reopens the circuit
// immediately, while the first success closes it and resets the window.
func (cb *CircuitBreaker) Record(o Outcome) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window.add(o)

	switch cb.state {
	case StateClosed:
		if cb.window.len() >= cb.config.MinimumCalls &&
			cb.window.failureRate() >= cb.config.FailureRateThreshold {
			cb.openLocked()
		}
	case StateHalfOpen:
		if o == OutcomeFailure {
			cb.openLocked()
			return
		}
		cb.transition(StateClosed)
		cb.window.reset()
		cb.halfOpenUsed = 0
	}
}

func (cb *CircuitBreaker) openLocked() {
	cb.transition(StateOpen)
	cb.openedAt = cb.now()
	cb.halfOpenUsed = 0
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to

	switch to {
	case StateOpen:
		cb.logger.Warn().
			Str("from", from.String()).
			Float64("failureRate", cb.window.failureRate()).
			Msg("circuit opened")
	case StateHalfOpen:
		cb.logger.Info().Msg("circuit half-open, allowing trial calls")
	case StateClosed:
		cb.logger.Info().Msg("circuit closed")
	}
}

// State returns a snapshot of the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

type Metrics struct {
	State        State
	WindowLength int
	Failures     int
	FailureRate  float64
}

// Metrics returns a consistent snapshot of the breaker internals.
func (cb *CircuitBreaker) Metrics() Metrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Metrics{
		State:        cb.state,
		WindowLength: cb.window.len(),
		Failures:     cb.window.failures,
		FailureRate:  cb.window.failureRate(),
	}
}
