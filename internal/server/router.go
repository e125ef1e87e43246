// Package server wires handlers and middleware into the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/credential-service/internal/auth"
	"github.com/ayush/credential-service/internal/logging"
	"github.com/ayush/credential-service/internal/middleware"
	"github.com/ayush/credential-service/internal/store"
	"github.com/ayush/credential-service/internal/users"
)

type Deps struct {
	Users       store.UserStore
	Auth        *auth.Service
	Logger      logging.Logger
	FrontendURL string
}

func NewRouter(d Deps) http.Handler {
	authHandler := auth.NewHandler(d.Auth, d.Logger)
	usersHandler := users.NewHandler(d.Users, d.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, auth.Envelope{Success: true, Message: "Credential service is running"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Put("/profile", authHandler.UpdateProfile)
		r.Delete("/profile", authHandler.DeleteProfile)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", usersHandler.List)
		r.Get("/{id}", usersHandler.Get)
	})

	return r
}
