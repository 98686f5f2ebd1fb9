package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler, allowedOrigins string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(allowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", apiHandler.RegisterHandler)
		r.Post("/login", apiHandler.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)
			r.Post("/logout", apiHandler.LogoutHandler)
			r.Get("/me", apiHandler.MeHandler)
			r.Put("/profile", apiHandler.UpdateProfileHandler)
			r.Post("/change-password", apiHandler.ChangePasswordHandler)
		})
	})

	r.Route("/sentiment", func(r chi.Router) {
		r.Use(apiHandler.JWTAuthMiddleware)

		r.Get("/summary", apiHandler.SummaryHandler)
		r.Get("/top-comments", apiHandler.TopCommentsHandler)
		r.Get("/weekly", apiHandler.WeeklyHandler)
		r.Get("/monthly", apiHandler.MonthlyHandler)

		// Tracking and on-demand analysis need an enterprise account
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.RequireEnterprise)
			r.Post("/track-product", apiHandler.TrackProductHandler)
			r.Post("/untrack-product", apiHandler.UntrackProductHandler)
			r.Get("/tracked-products", apiHandler.TrackedProductsHandler)
			r.Post("/submit-analysis", apiHandler.SubmitAnalysisHandler)
		})
	})

	r.Route("/monitor", func(r chi.Router) {
		r.Use(apiHandler.JWTAuthMiddleware)
		r.Use(apiHandler.RequireAdmin)
		r.Get("/model", apiHandler.ModelReportsHandler)
	})

	return r
}
