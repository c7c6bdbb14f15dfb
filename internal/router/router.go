package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/FACorreiaa/go-vibes-recommender/docs"

	appLogger "github.com/FACorreiaa/go-vibes-recommender/app/logger"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/poi"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/recommend"
)

// Config contains dependencies needed for the router setup
type Config struct {
	RecommendHandler *recommend.HandlerImpl
	// POIHandler is optional; search and stats routes are skipped without it.
	POIHandler     *poi.POIHandler
	MetricsHandler http.Handler
	AllowedOrigins []string
	Timeout        time.Duration
	Logger         *slog.Logger
}

// SetupRouter builds the application router with server-wide middleware applied.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}
	r.Use(middleware.Compress(5, "application/json"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", cfg.RecommendHandler.Recommend)
		r.Get("/zones", cfg.RecommendHandler.GetZones)

		if cfg.POIHandler != nil {
			r.Route("/pois", func(r chi.Router) {
				r.Get("/search", cfg.POIHandler.SearchPOIs)
				r.Get("/stats", cfg.POIHandler.GetStats)
			})
		}
	})

	return r
}
