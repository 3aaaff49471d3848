package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", apiHandler.RegisterHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Profile routes
			r.Get("/me", apiHandler.MeHandler)
			r.Put("/me", apiHandler.UpdateMeHandler)

			// Essay routes
			r.Post("/essays", apiHandler.SubmitEssayHandler)
			r.Get("/essays", apiHandler.ListEssaysHandler)
			r.Get("/essays/{essayID}", apiHandler.GetEssayHandler)

			// Derived views over graded essays
			r.Get("/analytics", apiHandler.AnalyticsHandler)
			r.Get("/achievements", apiHandler.AchievementsHandler)
		})
	})

	return r
}
