// Package api provides the HTTP API server and handlers for the Shelfmark application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfmarkapp/shelfmark-server/internal/config"
	"github.com/shelfmarkapp/shelfmark-server/internal/media/images"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// apiVersion is reported in the OpenAPI document and the health endpoint.
const apiVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *sqlite.Store
	services *Services
	covers   *images.Storage

	router          *chi.Mux
	api             huma.API
	authRateLimiter *RateLimiter
	logger          *slog.Logger
}

// NewServer creates the HTTP server with all middleware and routes configured.
func NewServer(
	cfg *config.Config,
	db *sqlite.Store,
	services *Services,
	covers *images.Storage,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig(cfg.Server.Name, apiVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		db:              db,
		services:        services,
		covers:          covers,
		router:          router,
		api:             api,
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
		logger:          logger,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerBookRoutes()
	s.registerCoverRoutes()
	s.registerMarkRoutes()
	s.registerReviewRoutes()
	s.registerReadingSessionRoutes()
	s.registerStatsRoutes()
	s.registerSocialRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
