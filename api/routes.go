package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware, publicFiles http.Handler) {
	r.Get("/healthz", handlers.healthHandler.health())

	if publicFiles != nil {
		r.Handle("/storage/*", publicFiles)
	}

	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Post("/auth/register", handlers.authHandler.register())
		r.Post("/auth/login", handlers.authHandler.login())

		r.Route("/api", func(r chi.Router) {
			r.Use(auth.authenticate)

			r.Get("/user", handlers.authHandler.me())
			r.Post("/profile", handlers.profileHandler.updateProfile())
			r.Post("/profile/verify-email", handlers.profileHandler.verifyEmailChange())
			r.Post("/email/verify-change", handlers.profileHandler.verifyEmailChange())

			r.Get("/projects", handlers.projectHandler.getAllProjects())
			r.Post("/projects", handlers.projectHandler.createProject())
			r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
			r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
			r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())

			r.Get("/projects/{projectID}/github", handlers.integrationHandler.getGitHubSummary())
			r.Get("/projects/{projectID}/notion", handlers.integrationHandler.getNotionPages())
			r.Get("/projects/{projectID}/project-lite", handlers.integrationHandler.getBoardSummary())
			r.Get("/news", handlers.integrationHandler.getNews())

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.requireAdmin)

				r.Get("/users", handlers.adminHandler.listUsers())
				r.Delete("/users/{userID}", handlers.adminHandler.deleteUser())
				r.Get("/invitations", handlers.adminHandler.listInvitations())
				r.Post("/invitations", handlers.adminHandler.createInvitation())
				r.Delete("/invitations/{invitationID}", handlers.adminHandler.deleteInvitation())
			})
		})
	})
}
