package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/biogate/biogate/internal/web/handlers"
	"github.com/biogate/biogate/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	enrollHandler := handlers.NewEnrollHandler(s.svc)
	verifyHandler := handlers.NewVerifyHandler(s.svc)
	usersHandler := handlers.NewUsersHandler(s.svc)
	policyHandler := handlers.NewPolicyHandler(s.config)

	// Health check (no grant required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Bootstrap and verify are open (verification is the authentication)
		r.Post("/bootstrap", enrollHandler.Bootstrap)
		r.Post("/verify", verifyHandler.Verify)

		// Enrollment requires a grant from a recent successful verification
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireGrant(s.grants))
			r.Post("/enroll", enrollHandler.Enroll)
		})

		// Enrollment registry
		r.Get("/users", usersHandler.List)
		r.Get("/users/{username}", usersHandler.Get)

		// Active decision policy
		r.Get("/policy", policyHandler.Get)
	})
}
