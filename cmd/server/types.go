package main

import (
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
)

// RateSongRequest is the request body for POST /song/{id}/rate
type RateSongRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// RateSongResponse is the response for a stored rating
type RateSongResponse struct {
	SongID        int      `json:"song_id"`
	RatingAverage *float64 `json:"rating_average"`
	RatingCount   int      `json:"rating_count"`
}

// GenresResponse is the response for GET /genres
type GenresResponse struct {
	Genres []string `json:"genres"`
}

// MetricsResponse provides server health and corpus statistics
type MetricsResponse struct {
	Status       string       `json:"status"`
	CorpusPath   string       `json:"corpus_path"`
	DatabasePath string       `json:"database_path"`
	SongCount    int          `json:"song_count"`
	RatingCount  int64        `json:"rating_count"`
	Corpus       corpus.Stats `json:"corpus"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
