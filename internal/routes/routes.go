// internal/routes/routes.go
package routes

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cashflow/internal/config"
	"cashflow/internal/logging"
	appmw "cashflow/internal/middleware"
	"cashflow/internal/services"
)

// Deps carries the collaborators that live outside the database.
type Deps struct {
	Log    logging.Logger
	Mailer services.EmailSender
	// Limiter throttles the recovery endpoints. Nil means an in-memory limiter.
	Limiter appmw.Limiter
	// Photos is nil when object storage is not configured.
	Photos services.PhotoStore
}

func SetupRoutes(db *sql.DB, cfg *config.Config, deps Deps) *chi.Mux {
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	if deps.Mailer == nil {
		deps.Mailer = &services.LogSender{Log: deps.Log}
	}
	if deps.Limiter == nil {
		deps.Limiter = appmw.NewMemoryLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	// RealIP rewrites RemoteAddr, which keys the rate limiter, from
	// client-supplied headers.
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"cashflow api"}`))
	})

	r.Get("/health", healthHandler(db, deps.Log))

	RegisterSwaggerRoutes(r)
	tokens := RegisterAuthRoutes(r, db, cfg, deps)
	RegisterUserRoutes(r, db, tokens, deps)

	return r
}

type dbHealth struct {
	Status string `json:"status"`
}

type healthResponse struct {
	Status string   `json:"status"`
	DB     dbHealth `json:"db"`
}

func healthHandler(db *sql.DB, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", DB: dbHealth{Status: "ok"}}
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			log.Error(r.Context(), "health check: database ping failed", "err", err)
			resp = healthResponse{Status: "degraded", DB: dbHealth{Status: "down"}}
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
