// Package server assembles the connect service and the REST API behind one
// HTTP listener.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/rest"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/auth"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/middleware"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/service"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// Deps are the collaborators served by the server.
type Deps struct {
	Engine service.Engine

	// Tokens enables optional bearer authentication when set.
	Tokens *auth.TokenVerifier

	// AdminKey guards the global debt summaries.
	AdminKey *auth.AdminKeyVerifier

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	deps       Deps
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, deps Deps) *Server {
	return &Server{config: cfg, deps: deps}
}

// Handler returns the root handler: connect procedures under
// /kashta.v1.SettlementService/ and the gin router for everything else.
// HTTP/2 without TLS is accepted for connect clients.
func (s *Server) Handler() http.Handler {
	interceptors := []connect.Interceptor{middleware.LoggingInterceptor()}
	if s.deps.Tokens != nil {
		interceptors = append(interceptors, middleware.OptionalAuth(s.deps.Tokens))
	}
	interceptors = append(interceptors, middleware.RequireAdminKey(s.deps.AdminKey, service.GetDebtSummariesProcedure))

	rpcPath, rpcHandler := service.NewSettlementServiceHandler(
		service.NewSettlementService(s.deps.Engine),
		connect.WithInterceptors(interceptors...),
	)

	router := gin.New()
	router.Use(middleware.GinRecovery())
	router.Use(middleware.GinLogger())
	router.Use(middleware.SetupCORS(s.config.CORSOrigins))
	if s.deps.Tokens != nil {
		router.Use(middleware.GinOptionalAuth(s.deps.Tokens))
	}
	rest.SetupRoutes(router, rest.NewHandler(s.deps.Engine), s.deps.AdminKey, s.deps.Metrics)

	mux := http.NewServeMux()
	mux.Handle(rpcPath, rpcHandler)
	mux.Handle("/", router)

	return h2c.NewHandler(mux, &http2.Server{})
}

// Start initializes and starts the HTTP server. It returns when the server
// stops; a graceful Shutdown is not an error.
func (s *Server) Start() error {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	slog.Info("Starting API server", "address", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}
