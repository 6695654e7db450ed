package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.config.AllowedOrigins))
	r.Use(metricsMiddleware)

	r.Get("/", s.handleRoot)

	// Health endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/api/health/metrics", s.handleMetrics)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/recommend", s.handleRecommend)
	r.Get("/genres", s.handleGenres)

	r.Route("/song/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSong)
		r.With(s.rateLimit()).Post("/rate", s.handleRateSong)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// corsMiddleware allows the configured origins. A lone "*" allows any origin.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           3600,
	})
}

// rateLimit throttles rating submissions per client IP.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.config.RateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, http.StatusTooManyRequests, "Too many ratings, slow down")
		}),
	)
}

// Start serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	handler := s.setupRoutes()
	corpusSongs.Set(float64(s.service.SongCount()))

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Infof("ChordMatch server starting on %s", addr)
	s.log.Infof("   Corpus: %s (%d songs)", s.config.CorpusPath, s.service.SongCount())
	s.log.Infof("   Database: %s", s.config.DBPath)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health                  - Health check")
	s.log.Infof("   GET    /api/health/metrics      - Corpus statistics")
	s.log.Infof("   GET    /metrics                 - Prometheus metrics")
	s.log.Infof("   GET    /recommend?chords=...    - Ranked song recommendations")
	s.log.Infof("   GET    /genres                  - Genre labels")
	s.log.Infof("   GET    /song/{id}               - Song details")
	s.log.Infof("   POST   /song/{id}/rate          - Rate a song (1-5)")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
