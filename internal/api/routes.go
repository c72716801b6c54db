package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(persons *PersonHandler, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondSafeError(w, http.StatusNotFound, nil, "route not found")
	})

	// Health probes
	r.Get("/health", health.HandleHealth)
	r.Get("/health/live", health.HandleLiveness)
	r.Get("/health/ready", health.HandleReadiness)

	r.Route("/api/Person", func(r chi.Router) {
		r.Post("/CreatePerson", persons.CreatePerson)
		r.Get("/GetAllPersons", persons.GetAllPersons)
		r.Get("/GetPersonById", persons.GetPersonByID)
		r.Get("/GetPersonsByCity", persons.GetPersonsByCity)
		r.Put("/UpdatePerson", persons.UpdatePerson)
		r.Delete("/DeletePerson", persons.DeletePerson)
	})

	return r
}
