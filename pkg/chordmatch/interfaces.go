package chordmatch

import (
	"context"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
)

type Service interface {
	Recommend(ctx context.Context, req RecommendRequest) ([]Recommendation, error)
	GetSong(ctx context.Context, songID int) (*SongDetail, error)
	RateSong(ctx context.Context, songID, rating int) (RatingSummary, error)
	Genres() []string
	Stats() corpus.Stats
	SongCount() int
	RatingTotal(ctx context.Context) (int64, error)
	Close() error
}

// RatingStore persists user ratings. Implementations validate nothing beyond
// their own storage constraints; the service checks the rating range.
type RatingStore interface {
	RecordRating(ctx context.Context, songID, value int) error
	Summary(ctx context.Context, songID int) (RatingSummary, error)
	Summaries(ctx context.Context, songIDs []int) (map[int]RatingSummary, error)
	CountRatings(ctx context.Context) (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
