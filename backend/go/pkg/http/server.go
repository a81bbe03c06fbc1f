package http

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/pkg/httpmiddleware"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/ratelimiter"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server wraps a gin engine and the http.Server that serves it.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        *logger.Logger
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// NewServer creates a gin-backed Server. Recovery and request logging are always on;
// inbound rate limiting is applied when enabled in the config.
func NewServer(cfg *config.AppConfig, log *logger.Logger, opts ...ServerOption) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), httpmiddleware.RequestLogger(log))

	if cfg.Middleware.RateLimiter.Enabled {
		tb := cfg.Middleware.RateLimiter.TokenBucket
		if tb.Rate <= 0 || tb.Capacity <= 0 {
			return nil, fmt.Errorf("failed to create rate limiter: rate and capacity must be positive")
		}
		log.Info(fmt.Sprintf("Enabling rate limiter middleware: %.1f req/s, burst %d", tb.Rate, tb.Capacity))
		engine.Use(httpmiddleware.RateLimit(ratelimiter.NewTokenBucket(tb.Rate, tb.Capacity)))
	}
	if cfg.Server.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	}

	srv := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		log:    log,
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Set a default address if none was provided
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8080"
	}

	return srv, nil
}

// Engine exposes the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler, useful with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log.Info(fmt.Sprintf("Starting server on %s", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
