package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/recommend"
	"github.com/himanishpuri/chordmatch/pkg/logger"
)

// maxBodyBytes caps request bodies; the rating payload is a few bytes.
const maxBodyBytes = 1 << 10

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service  chordmatch.Service
	config   *ServerConfig
	log      chordmatch.Logger
	validate *validator.Validate
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	CorpusPath     string
	DBPath         string
	AllowedOrigins []string
	// RateLimit is the number of rating requests per client IP per minute.
	RateLimit int
}

// NewServer creates a new server instance
func NewServer(service chordmatch.Service, config *ServerConfig) *Server {
	return &Server{
		service:  service,
		config:   config,
		log:      logger.GetLogger(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Chord recommender running!",
		"service": "ChordMatch API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"metrics":   "GET /api/health/metrics",
			"recommend": "GET /recommend?chords=C,G,Am&artist=&title=&genre=&limit=",
			"genres":    "GET /genres",
			"getSong":   "GET /song/{id}",
			"rateSong":  "POST /song/{id}/rate",
			"prom":      "GET /metrics",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.service.RatingTotal(r.Context())
	if err != nil {
		s.log.Errorf("Failed to count ratings: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		CorpusPath:   s.config.CorpusPath,
		DatabasePath: s.config.DBPath,
		SongCount:    s.service.SongCount(),
		RatingCount:  ratings,
		Corpus:       s.service.Stats(),
	})
}

// handleRecommend handles GET /recommend
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	genre := q.Get("genre")
	if genre != "" && !corpus.IsGenre(genre) {
		s.respondError(w, http.StatusBadRequest, "Unknown genre; see GET /genres")
		return
	}

	results, err := s.service.Recommend(r.Context(), chordmatch.RecommendRequest{
		Chords: recommend.ParseChordList(q.Get("chords")),
		Artist: q.Get("artist"),
		Title:  q.Get("title"),
		Genre:  genre,
		Limit:  limit,
	})
	if err != nil {
		s.log.Errorf("Recommend failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to compute recommendations")
		return
	}

	recommendResults.Observe(float64(len(results)))
	s.respondJSON(w, http.StatusOK, results)
}

// handleGenres handles GET /genres
func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, GenresResponse{Genres: s.service.Genres()})
}

// handleGetSong handles GET /song/{id}
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := s.songIDParam(w, r)
	if !ok {
		return
	}

	song, err := s.service.GetSong(r.Context(), songID)
	if errors.Is(err, chordmatch.ErrSongNotFound) {
		s.respondError(w, http.StatusNotFound, "Song not found")
		return
	}
	if err != nil {
		s.log.Errorf("Failed to get song %d: %v", songID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve song")
		return
	}

	s.respondJSON(w, http.StatusOK, song)
}

// handleRateSong handles POST /song/{id}/rate
func (s *Server) handleRateSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := s.songIDParam(w, r)
	if !ok {
		return
	}

	var req RateSongRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "rating must be an integer between 1 and 5")
		return
	}

	sum, err := s.service.RateSong(r.Context(), songID, req.Rating)
	switch {
	case errors.Is(err, chordmatch.ErrSongNotFound):
		s.respondError(w, http.StatusNotFound, "Song not found")
		return
	case errors.Is(err, chordmatch.ErrInvalidRating):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Errorf("Failed to rate song %d: %v", songID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store rating")
		return
	}

	ratingsTotal.WithLabelValues(strconv.Itoa(req.Rating)).Inc()
	s.respondJSON(w, http.StatusOK, RateSongResponse{
		SongID:        songID,
		RatingAverage: sum.Average,
		RatingCount:   sum.Count,
	})
}

// songIDParam parses the {id} URL parameter, answering 400 when it is not
// an integer.
func (s *Server) songIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid song ID")
		return 0, false
	}
	return id, true
}
