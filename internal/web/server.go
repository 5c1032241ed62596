package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/biogate/biogate/internal/auth"
	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/logging"
	"github.com/biogate/biogate/internal/web/middleware"
)

// Server exposes the verification gate over HTTP.
type Server struct {
	config     *config.Config
	svc        *auth.Service
	grants     *auth.GrantIssuer
	router     *chi.Mux
	httpServer *http.Server
	log        logging.Logger
}

// NewServer creates a new web server around the auth service. The grant
// issuer must be the one the service signs with, so Bearer tokens from
// verification responses pass the enrollment middleware.
func NewServer(cfg *config.Config, svc *auth.Service, grants *auth.GrantIssuer, port int, host string, log logging.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		config: cfg,
		svc:    svc,
		grants: grants,
		router: r,
		log:    log,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(time.Minute))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute, // covers sample upload plus two extraction calls
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info(context.Background(), "starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
