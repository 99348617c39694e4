package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"cashflow/internal/auth"
	"cashflow/internal/handlers"
	appmw "cashflow/internal/middleware"
	"cashflow/internal/repository"
	"cashflow/internal/services"
)

func RegisterUserRoutes(router chi.Router, db *sql.DB, tokens *auth.TokenIssuer, deps Deps) {
	svc := services.NewUserService(
		repository.NewUserRepository(db),
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		deps.Photos,
		deps.Log,
	)
	userHandler := handlers.NewUserHandler(svc, deps.Log)

	router.Route("/user", func(r chi.Router) {
		r.Use(appmw.JWTAuth(tokens))

		r.Get("/me", userHandler.Me)
		r.Put("/update/password", userHandler.ChangePassword)
		r.Patch("/update", userHandler.Update)
		r.Delete("/delete", userHandler.Delete)
		r.Post("/photo", userHandler.UploadPhoto)
	})
}
