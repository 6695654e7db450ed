// Package chordmatch wires the corpus, the recommendation engine and the
// ratings store behind one Service.
package chordmatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/patrickmn/go-cache"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/recommend"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/storage"
	"github.com/himanishpuri/chordmatch/pkg/logger"
)

var (
	ErrSongNotFound  = errors.New("song not found")
	ErrInvalidRating = errors.New("rating must be an integer between 1 and 5")
)

// chordService is the default implementation of the Service interface.
type chordService struct {
	corpus    *corpus.Corpus
	engine    *recommend.Engine
	ratings   RatingStore
	summaries *cache.Cache
	log       Logger
	config    *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	cp := cfg.Corpus
	if cp == nil {
		var err error
		cp, err = corpus.LoadFile(context.Background(), cfg.CorpusPath,
			corpus.WithWorkers(cfg.Workers),
			corpus.WithLogger(cfg.Logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load corpus: %w", err)
		}
	}

	ratings := cfg.Ratings
	if ratings == nil {
		var err error
		ratings, err = NewSQLiteRatingStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create rating store: %w", err)
		}
	}

	var summaries *cache.Cache
	if cfg.SummaryTTL > 0 {
		summaries = cache.New(cfg.SummaryTTL, 2*cfg.SummaryTTL)
	}

	return &chordService{
		corpus:    cp,
		engine:    recommend.NewEngine(cp),
		ratings:   ratings,
		summaries: summaries,
		log:       cfg.Logger,
		config:    cfg,
	}, nil
}

// Recommend ranks the corpus for req and attaches rating summaries.
func (s *chordService) Recommend(ctx context.Context, req RecommendRequest) ([]Recommendation, error) {
	results := s.engine.Recommend(recommend.Query{
		Known:  req.Chords,
		Artist: req.Artist,
		Title:  req.Title,
		Genre:  req.Genre,
		Limit:  req.Limit,
	})
	s.log.Debugf("Recommend: %d known chords, %d results", len(req.Chords), len(results))

	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.SongID
	}
	sums, err := s.summariesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, len(results))
	for i, r := range results {
		sum := sums[r.SongID]
		out[i] = Recommendation{
			SongID:        r.SongID,
			Artist:        r.Artist,
			Title:         r.Title,
			Chords:        r.Chords,
			Genre:         r.Genre,
			Missing:       r.Missing,
			Known:         r.Known,
			RatingAverage: sum.Average,
			RatingCount:   sum.Count,
		}
	}
	return out, nil
}

// GetSong returns the full record of one song with its rating summary.
func (s *chordService) GetSong(ctx context.Context, songID int) (*SongDetail, error) {
	song, ok := s.corpus.Song(songID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSongNotFound, songID)
	}

	sum, err := s.summary(ctx, songID)
	if err != nil {
		return nil, err
	}

	genres := corpus.ParseStrings(song.GenresRaw)
	if genres == nil {
		genres = []string{}
	}

	return &SongDetail{
		SongID:          song.ID,
		Artist:          song.Artist,
		Title:           song.Title,
		Genre:           song.Genre,
		Chords:          song.Chords,
		ChordsRaw:       song.ChordsRaw,
		Lyrics:          song.Lyrics,
		ChordsAndLyrics: song.ChordsAndLyrics,
		Genres:          genres,
		RatingAverage:   sum.Average,
		RatingCount:     sum.Count,
	}, nil
}

// RateSong records a 1..5 rating and returns the song's updated summary.
func (s *chordService) RateSong(ctx context.Context, songID, rating int) (RatingSummary, error) {
	if rating < storage.MinRating || rating > storage.MaxRating {
		return RatingSummary{}, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	if _, ok := s.corpus.Song(songID); !ok {
		return RatingSummary{}, fmt.Errorf("%w: %d", ErrSongNotFound, songID)
	}

	if err := s.ratings.RecordRating(ctx, songID, rating); err != nil {
		return RatingSummary{}, fmt.Errorf("failed to record rating: %w", err)
	}
	if s.summaries != nil {
		s.summaries.Delete(cacheKey(songID))
	}

	s.log.Infof("Rated song %d: %d", songID, rating)
	return s.summary(ctx, songID)
}

func (s *chordService) Genres() []string {
	return corpus.Genres()
}

func (s *chordService) Stats() corpus.Stats {
	return s.corpus.Stats()
}

func (s *chordService) SongCount() int {
	return s.corpus.Len()
}

// RatingTotal returns the number of stored ratings across all songs.
func (s *chordService) RatingTotal(ctx context.Context) (int64, error) {
	n, err := s.ratings.CountRatings(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return n, nil
}

// Close releases all resources held by the service.
func (s *chordService) Close() error {
	if s.summaries != nil {
		s.summaries.Flush()
	}
	return s.ratings.Close()
}

// summary returns one song's rating summary, from the cache when present.
func (s *chordService) summary(ctx context.Context, songID int) (RatingSummary, error) {
	if s.summaries != nil {
		if v, ok := s.summaries.Get(cacheKey(songID)); ok {
			return v.(RatingSummary), nil
		}
	}

	sum, err := s.ratings.Summary(ctx, songID)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("failed to load ratings: %w", err)
	}
	if s.summaries != nil {
		s.summaries.Set(cacheKey(songID), sum, cache.DefaultExpiration)
	}
	return sum, nil
}

// summariesFor serves cached summaries and fetches the rest in one batched
// lookup.
func (s *chordService) summariesFor(ctx context.Context, ids []int) (map[int]RatingSummary, error) {
	out := make(map[int]RatingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := ids
	if s.summaries != nil {
		missing = missing[:0:0]
		for _, id := range ids {
			if v, ok := s.summaries.Get(cacheKey(id)); ok {
				out[id] = v.(RatingSummary)
				continue
			}
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := s.ratings.Summaries(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	for _, id := range missing {
		sum := fetched[id]
		out[id] = sum
		if s.summaries != nil {
			s.summaries.Set(cacheKey(id), sum, cache.DefaultExpiration)
		}
	}
	return out, nil
}

func cacheKey(songID int) string {
	return strconv.Itoa(songID)
}
