package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/crucial707/messagely/internal/auth"
	"github.com/crucial707/messagely/internal/config"
	"github.com/crucial707/messagely/internal/handlers"
	"github.com/crucial707/messagely/internal/middleware"
	"github.com/crucial707/messagely/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires stores, handlers and middleware. logins receives
// successful logins; it may be nil.
func newRouter(db *sql.DB, cfg config.Config, logins handlers.LoginRecorder) http.Handler {
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret))
	userRepo := repo.NewUserRepo(db, cfg.BcryptCost)
	messageRepo := repo.NewMessageRepo(db)

	authHandler := &handlers.AuthHandler{Users: userRepo, Tokens: issuer, Logins: logins}
	messageHandler := &handlers.MessageHandler{Messages: messageRepo}
	userHandler := &handlers.UserHandler{Users: userRepo, Messages: messageRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Authenticate(issuer))
	r.Use(middleware.RequestLog(slog.Default()))
	r.Use(middleware.Prometheus)
	r.Use(middleware.MaxBytes(int64(cfg.MaxBodyBytes)))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "readiness check failed", "error", err)
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ready")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/login", authHandler.Login)
	r.Post("/register", authHandler.Register)

	r.Group(func(r chi.Router) {
		r.Use(middleware.EnsureLoggedIn)

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", messageHandler.CreateMessage)
			r.Get("/{id}", messageHandler.GetMessage)
			r.Post("/{id}/read", messageHandler.MarkRead)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Route("/{username}", func(r chi.Router) {
				r.Use(middleware.EnsureCorrectUser("username"))
				r.Get("/", userHandler.GetUser)
				r.Get("/to", userHandler.MessagesTo)
				r.Get("/from", userHandler.MessagesFrom)
			})
		})
	})

	return r
}
