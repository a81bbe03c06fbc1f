// Package orchestrator sends one logical request to an HTTP backend whose contract is
// unstable. It tries an ordered list of wire encodings, retries transient failures with
// exponential backoff, and normalizes whatever body comes back into a Result.
package orchestrator

import (
	"MultiAI_Assistant/backend/go/internal/models"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"
)

// maxLoggedBody bounds how much of a response body goes into attempt logs.
const maxLoggedBody = 500

// AttemptObserver receives every attempt after it completes.
type AttemptObserver interface {
	ObserveAttempt(ctx context.Context, attempt models.AttemptLog)
}

// Orchestrator executes intents over a Transport. It holds no per-call state and is
// safe for concurrent use.
type Orchestrator struct {
	transport  Transport
	log        *logger.Logger
	normalizer *Normalizer
	observers  []AttemptObserver
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for per-attempt lines.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithNormalizer replaces the default session extractors.
func WithNormalizer(n *Normalizer) Option {
	return func(o *Orchestrator) {
		o.normalizer = n
	}
}

// WithObserver adds an attempt observer.
func WithObserver(obs AttemptObserver) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, obs)
	}
}

// New creates an Orchestrator on top of transport.
func New(transport Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport:  transport,
		log:        logger.New("orchestrator", "", ""),
		normalizer: DefaultNormalizer(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute tries strategies strictly in order. The first 2xx response wins and later
// strategies are never invoked. A 4xx gets exactly one attempt before moving on; 5xx and
// transport errors are retried per plan first. A nil plan means one attempt per strategy.
//
// Execute never panics on backend behaviour and never returns a Go error: every failure
// is a Result with Success false and Err of kind AllStrategiesFailed or Cancelled.
func (o *Orchestrator) Execute(ctx context.Context, intent Intent, strategies []Strategy, plan *RetryPlan) Result {
	if len(strategies) == 0 {
		return failed(AllStrategiesFailed, "no strategies configured for "+intent.Name, nil, 0)
	}

	p := SingleAttempt
	if plan != nil {
		p = plan.normalized()
	}

	var (
		details  []StrategyFailure
		attempts int
	)
	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return failed(Cancelled, err.Error(), details, attempts)
		}

		req, err := buildRequest(intent, s)
		if err != nil {
			o.log.Warn(fmt.Sprintf("%s: strategy %s cannot encode request: %v", intent.Name, s.Name, err))
			details = append(details, StrategyFailure{Strategy: s.Name, Index: i, Kind: ClientError, Message: err.Error()})
			continue
		}

		schedule := p.schedule()
		last := StrategyFailure{Strategy: s.Name, Index: i}
		for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return failed(Cancelled, err.Error(), appendIfTried(details, last), attempts)
			}

			attempts++
			last.Attempts = attempt
			start := time.Now()
			resp, err := o.transport.Do(ctx, req)
			elapsed := time.Since(start)
			if err == nil && resp == nil {
				err = errors.New("transport returned no response")
			}

			switch {
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					o.record(ctx, intent, s, attempt, req.URL, nil, "Cancelled", err, start, elapsed)
					last.Kind, last.Message = NetworkError, err.Error()
					return failed(Cancelled, ctxErr.Error(), append(details, last), attempts)
				}
				last.Kind, last.StatusCode, last.Message = NetworkError, 0, err.Error()
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				o.record(ctx, intent, s, attempt, req.URL, resp, "success", nil, start, elapsed)
				return o.success(intent, s, resp, attempts)
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				last.Kind, last.StatusCode, last.Message = ClientError, resp.StatusCode, statusMessage(resp)
			default:
				last.Kind, last.StatusCode, last.Message = ServerError, resp.StatusCode, statusMessage(resp)
			}
			o.record(ctx, intent, s, attempt, req.URL, resp, last.Kind.String(), err, start, elapsed)

			if last.Kind == ClientError || attempt == p.MaxAttempts {
				break
			}

			wait := schedule.NextBackOff()
			o.log.Debug(fmt.Sprintf("%s: waiting %s before retrying strategy %s", intent.Name, wait, s.Name))
			if err := sleepWithContext(ctx, wait); err != nil {
				return failed(Cancelled, err.Error(), append(details, last), attempts)
			}
		}
		details = append(details, last)
	}

	return failed(AllStrategiesFailed, fmt.Sprintf("%s: all %d request formats failed", intent.Name, len(strategies)), details, attempts)
}

func (o *Orchestrator) success(intent Intent, s Strategy, resp *Response, attempts int) Result {
	n := o.normalizer.normalize(resp.Body, intent.ExpectSession)
	if n.parseErr != nil {
		o.log.Debug(fmt.Sprintf("%s: %s: %v", intent.Name, ParseError, n.parseErr))
	}
	if n.generated {
		o.log.Warn(fmt.Sprintf("%s: %s: %s", intent.Name, n.warning, n.sessionID))
	} else if n.sessionID != "" {
		o.log.Debug(fmt.Sprintf("%s: session ID found by %s", intent.Name, n.extractor))
	}
	return Result{
		Success:           true,
		StatusCode:        resp.StatusCode,
		Strategy:          s.Name,
		Attempts:          attempts,
		Payload:           resp.Body,
		Fields:            n.fields,
		SessionID:         n.sessionID,
		GeneratedFallback: n.generated,
		Warning:           n.warning,
	}
}

func (o *Orchestrator) record(ctx context.Context, intent Intent, s Strategy, attempt int, url string, resp *Response, outcome string, err error, start time.Time, elapsed time.Duration) {
	entry := models.AttemptLog{
		TraceID:    TraceIDFromContext(ctx),
		Intent:     intent.Name,
		Strategy:   s.Name,
		Attempt:    attempt,
		URL:        url,
		Outcome:    outcome,
		DurationMs: elapsed.Milliseconds(),
		StartedAt:  start,
	}
	if resp != nil {
		entry.StatusCode = resp.StatusCode
		entry.Body = truncate(string(resp.Body), maxLoggedBody)
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l := o.log.WithAttempt(entry)
	if outcome == "success" {
		l.Info("backend attempt succeeded")
	} else {
		l.Warn("backend attempt failed")
	}
	for _, obs := range o.observers {
		obs.ObserveAttempt(ctx, entry)
	}
}

func failed(kind ErrorKind, msg string, details []StrategyFailure, attempts int) Result {
	return Result{Attempts: attempts, Err: &Error{Kind: kind, Message: msg, Details: details}}
}

// appendIfTried keeps the strategy in the details only if it issued at least one attempt.
func appendIfTried(details []StrategyFailure, last StrategyFailure) []StrategyFailure {
	if last.Attempts == 0 {
		return details
	}
	return append(details, last)
}

func statusMessage(resp *Response) string {
	text := truncate(string(resp.Body), maxLoggedBody)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return fmt.Sprintf("server responded with %d: %s", resp.StatusCode, text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// IsTerminal reports whether err came out of Execute as a terminal failure.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrAllStrategiesFailed) || errors.Is(err, ErrCancelled)
}
