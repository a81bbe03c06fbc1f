package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies attempt and terminal failures.
type ErrorKind int

const (
	// NetworkError is a transport-level failure, including per-attempt timeouts. Retried.
	NetworkError ErrorKind = iota + 1
	// ServerError is a 5xx (or otherwise non-2xx, non-4xx) response. Retried.
	ServerError
	// ClientError is a 4xx response or a body that cannot be encoded. Never retried.
	ClientError
	// ParseError means the body was not JSON; text extraction takes over.
	ParseError
	// AllStrategiesFailed is terminal: every strategy exhausted its attempts.
	AllStrategiesFailed
	// Cancelled is terminal: the caller's context ended.
	Cancelled
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case NetworkError:
		return "NetworkError"
	case ServerError:
		return "ServerError"
	case ClientError:
		return "ClientError"
	case ParseError:
		return "ParseError"
	case AllStrategiesFailed:
		return "AllStrategiesFailed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

var (
	// ErrAllStrategiesFailed matches any *Error of kind AllStrategiesFailed via errors.Is.
	ErrAllStrategiesFailed = errors.New("all strategies failed")
	// ErrCancelled matches any *Error of kind Cancelled via errors.Is.
	ErrCancelled = errors.New("request cancelled")
)

// StrategyFailure describes the last failed attempt of one strategy.
type StrategyFailure struct {
	Strategy   string
	Index      int
	Kind       ErrorKind
	StatusCode int
	Message    string
	Attempts   int
}

func (f StrategyFailure) String() string {
	if f.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d, %d attempts): %s", f.Strategy, f.Kind, f.StatusCode, f.Attempts, f.Message)
	}
	return fmt.Sprintf("%s: %s (%d attempts): %s", f.Strategy, f.Kind, f.Attempts, f.Message)
}

// Error is the terminal failure carried by a Result.
type Error struct {
	Kind    ErrorKind
	Message string
	Details []StrategyFailure
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.String())
	}
	return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, strings.Join(parts, "; "))
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAllStrategiesFailed:
		return e.Kind == AllStrategiesFailed
	case ErrCancelled:
		return e.Kind == Cancelled
	}
	return false
}
