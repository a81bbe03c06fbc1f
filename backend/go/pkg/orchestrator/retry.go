package orchestrator

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPlan governs repeated attempts of a single strategy after transient failures
// (network errors and 5xx). 4xx responses are never retried.
type RetryPlan struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
}

// SingleAttempt is used when Execute receives a nil plan.
var SingleAttempt = RetryPlan{MaxAttempts: 1}

// PlanFromConfig converts a retry section of the config into a RetryPlan.
// Unparseable durations fall back to one second of base delay and no cap.
func PlanFromConfig(c config.RetryConfig) RetryPlan {
	return RetryPlan{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   config.Duration(c.BaseDelay, time.Second),
		Multiplier:  c.Multiplier,
		MaxDelay:    config.Duration(c.MaxDelay, 0),
	}.normalized()
}

func (p RetryPlan) normalized() RetryPlan {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	return p
}

// schedule returns a deterministic exponential schedule whose n-th NextBackOff is
// BaseDelay × Multiplier^(n-1).
func (p RetryPlan) schedule() backoff.BackOff {
	p = p.normalized()
	if p.BaseDelay == 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	b.Reset()
	return b
}

// Delays lists the waits between attempts: len == MaxAttempts-1.
func (p RetryPlan) Delays() []time.Duration {
	p = p.normalized()
	s := p.schedule()
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		out = append(out, s.NextBackOff())
	}
	return out
}

// sleepWithContext waits for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
