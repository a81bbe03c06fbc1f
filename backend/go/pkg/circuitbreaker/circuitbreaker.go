package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen lets trial requests through to probe whether the backend recovered.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreaker is the interface for the circuit breaker pattern.
type CircuitBreaker interface {
	// Execute runs req unless the circuit is open. A non-nil error from req counts as a failure.
	Execute(req func() error) error
	// State returns the current state of the circuit breaker.
	State() State
}

// Settings configures a breaker.
type Settings struct {
	Name             string
	FailureThreshold uint32        // consecutive failures that trip the circuit
	SuccessThreshold uint32        // consecutive HalfOpen successes that close it again
	Timeout          time.Duration // time spent Open before probing
	// OnStateChange is called outside the lock after every transition.
	OnStateChange func(name string, from, to State)
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type breaker struct {
	settings             Settings
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
	openedAt             time.Time
	state                State
	mutex                sync.Mutex
}

// New creates a breaker with the specified thresholds.
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return NewWithSettings(Settings{
		FailureThreshold: failureThreshold,
		SuccessThreshold: successThreshold,
		Timeout:          timeout,
	})
}

// NewWithSettings creates a breaker from full settings. Zero thresholds are treated as 1.
func NewWithSettings(s Settings) CircuitBreaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return &breaker{settings: s, state: Closed}
}

// State returns the current state, moving Open to HalfOpen once the timeout elapsed.
func (cb *breaker) State() State {
	cb.mutex.Lock()
	from, to := cb.refresh()
	state := cb.state
	cb.mutex.Unlock()
	cb.notify(from, to)
	return state
}

// Execute wraps the execution of a function with the circuit breaker logic.
func (cb *breaker) Execute(req func() error) error {
	cb.mutex.Lock()
	from, to := cb.refresh()
	state := cb.state
	cb.mutex.Unlock()
	cb.notify(from, to)

	if state == Open {
		return ErrCircuitOpen
	}

	err := req()

	cb.mutex.Lock()
	if err != nil {
		from, to = cb.onFailure()
	} else {
		from, to = cb.onSuccess()
	}
	cb.mutex.Unlock()
	cb.notify(from, to)

	return err
}

// refresh assumes the lock is held.
func (cb *breaker) refresh() (State, State) {
	if cb.state == Open && cb.settings.Now().Sub(cb.openedAt) > cb.settings.Timeout {
		cb.consecutiveSuccesses = 0
		return cb.setState(HalfOpen)
	}
	return cb.state, cb.state
}

// onSuccess assumes the lock is held.
func (cb *breaker) onSuccess() (State, State) {
	switch cb.state {
	case HalfOpen:
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.settings.SuccessThreshold {
			cb.consecutiveFailures = 0
			cb.consecutiveSuccesses = 0
			return cb.setState(Closed)
		}
	case Closed:
		cb.consecutiveFailures = 0
	}
	return cb.state, cb.state
}

// onFailure assumes the lock is held.
func (cb *breaker) onFailure() (State, State) {
	switch cb.state {
	case HalfOpen:
		return cb.trip()
	case Closed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.settings.FailureThreshold {
			return cb.trip()
		}
	}
	return cb.state, cb.state
}

func (cb *breaker) trip() (State, State) {
	cb.openedAt = cb.settings.Now()
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
	return cb.setState(Open)
}

func (cb *breaker) setState(s State) (State, State) {
	from := cb.state
	cb.state = s
	return from, s
}

func (cb *breaker) notify(from, to State) {
	if from != to && cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}
