package chordmatch

import (
	"context"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch/storage"
)

// storageAdapter adapts the storage.DBClient to implement the RatingStore interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteRatingStore opens (or creates) the ratings database at dbPath.
func NewSQLiteRatingStore(dbPath string) (RatingStore, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RecordRating(ctx context.Context, songID, value int) error {
	return s.db.RecordRating(ctx, songID, value)
}

func (s *storageAdapter) Summary(ctx context.Context, songID int) (RatingSummary, error) {
	sum, err := s.db.Summary(ctx, songID)
	if err != nil {
		return RatingSummary{}, err
	}
	return toRatingSummary(sum), nil
}

func (s *storageAdapter) Summaries(ctx context.Context, songIDs []int) (map[int]RatingSummary, error) {
	all, err := s.db.Summaries(ctx, songIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[int]RatingSummary, len(all))
	for id, sum := range all {
		out[id] = toRatingSummary(sum)
	}
	return out, nil
}

func (s *storageAdapter) CountRatings(ctx context.Context) (int64, error) {
	return s.db.CountRatings(ctx)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func toRatingSummary(s storage.Summary) RatingSummary {
	return RatingSummary{Average: s.Average, Count: s.Count}
}
