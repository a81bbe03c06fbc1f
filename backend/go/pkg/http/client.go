package http

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/pkg/circuitbreaker"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"MultiAI_Assistant/backend/go/pkg/ratelimiter"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes bounds how much of a backend response is read into memory.
const maxResponseBytes = 10 << 20

// Client wraps the standard http.Client with a per-attempt timeout, an optional circuit
// breaker on the backend and optional outbound pacing. It implements orchestrator.Transport.
type Client struct {
	httpClient     *http.Client
	breaker        circuitbreaker.CircuitBreaker
	limiter        ratelimiter.Waiter
	attemptTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBreaker sets the circuit breaker directly, overriding the config.
func WithBreaker(b circuitbreaker.CircuitBreaker) ClientOption {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient creates a Client from the backend and middleware sections of cfg.
func NewClient(cfg *config.AppConfig, log *logger.Logger, opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient:     &http.Client{},
		attemptTimeout: config.Duration(cfg.Backend.AttemptTimeout, 30*time.Second),
	}

	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker, err := createCircuitBreaker("backend", cfg.Middleware.CircuitBreaker, log)
		if err != nil {
			return nil, err
		}
		c.breaker = breaker
	}
	if cfg.Middleware.Outbound.Enabled {
		tb := cfg.Middleware.Outbound.TokenBucket
		c.limiter = ratelimiter.NewTokenBucket(tb.Rate, tb.Capacity)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do executes one attempt. Responses of any status are returned as-is; only transport
// failures, an open circuit and timeouts produce an error.
func (c *Client) Do(ctx context.Context, req *orchestrator.Request) (*orchestrator.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for outbound rate limiter: %w", err)
		}
	}

	if c.breaker == nil {
		return c.do(ctx, req)
	}

	var resp *orchestrator.Response
	breakerErr := c.breaker.Execute(func() error {
		var err error
		resp, err = c.do(ctx, req)
		if err != nil {
			return err
		}
		// Treat server-side errors as failures for the circuit breaker
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}
		return nil
	})

	if errors.Is(breakerErr, circuitbreaker.ErrCircuitOpen) {
		return nil, breakerErr
	}
	if resp != nil {
		// 5xx responses are still handed back so the caller sees the status and body.
		return resp, nil
	}
	return nil, breakerErr
}

func (c *Client) do(ctx context.Context, req *orchestrator.Request) (*orchestrator.Response, error) {
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s %s: %w", req.Method, req.URL, err)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &orchestrator.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       body,
	}, nil
}

// createCircuitBreaker initializes a circuit breaker based on the configuration.
func createCircuitBreaker(name string, cfg config.CircuitBreakerConfig, log *logger.Logger) (circuitbreaker.CircuitBreaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return circuitbreaker.NewWithSettings(circuitbreaker.Settings{
		Name:             name,
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          timeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			if log != nil {
				log.Warn(fmt.Sprintf("circuit breaker %s: %s -> %s", name, from, to))
			}
		},
	}), nil
}

var _ orchestrator.Transport = (*Client)(nil)
