package routes

import (
	"database/sql"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"cashflow/internal/auth"
	"cashflow/internal/config"
	"cashflow/internal/handlers"
	appmw "cashflow/internal/middleware"
	"cashflow/internal/repository"
	"cashflow/internal/services"
)

// RegisterAuthRoutes mounts the public auth endpoints and returns the token
// issuer shared with the protected routes.
func RegisterAuthRoutes(router chi.Router, db *sql.DB, cfg *config.Config, deps Deps) *auth.TokenIssuer {
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	svc := services.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewResetCodeRepository(db),
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		tokens,
		deps.Mailer,
		deps.Log,
		time.Duration(cfg.JWTExpiresInSeconds)*time.Second,
	)
	authHandler := handlers.NewAuthHandler(svc, deps.Log)

	limited := appmw.RateLimit(deps.Limiter, "auth-recovery", cfg.RateLimitWindow, deps.Log)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/validate-code", authHandler.ValidateCode)
			r.Post("/reset-password", authHandler.ResetPassword)
		})
	})
	return tokens
}
