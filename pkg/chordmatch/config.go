package chordmatch

import (
	"time"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
)

type Config struct {
	CorpusPath string
	Corpus     *corpus.Corpus
	DBPath     string
	Workers    int
	SummaryTTL time.Duration
	Logger     Logger
	Ratings    RatingStore
}

type Option func(*Config)

func WithCorpusPath(path string) Option {
	return func(c *Config) {
		c.CorpusPath = path
	}
}

// WithCorpus injects an already built corpus; CorpusPath is then ignored.
func WithCorpus(cp *corpus.Corpus) Option {
	return func(c *Config) {
		c.Corpus = cp
	}
}

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithWorkers bounds extraction parallelism while loading. Values below 1
// mean one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithRatingStore(store RatingStore) Option {
	return func(c *Config) {
		c.Ratings = store
	}
}

// WithSummaryTTL sets how long rating summaries are cached. Zero disables
// the cache.
func WithSummaryTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.SummaryTTL = ttl
	}
}

func defaultConfig() *Config {
	return &Config{
		CorpusPath: "data/chords_and_lyrics.csv",
		DBPath:     "chordmatch.sqlite3",
		Workers:    0,
		SummaryTTL: 30 * time.Second,
		Logger:     nil,
	}
}
