package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch/chords"
)

// ErrNoHeader is returned when the corpus source has no header row.
var ErrNoHeader = errors.New("corpus has no header row")

// Column names of the corpus export.
const (
	ColumnArtist   = "artist_name"
	ColumnTitle    = "song_name"
	ColumnChords   = "chords"
	ColumnLyrics   = "lyrics"
	ColumnGenres   = "genres"
	ColumnCombined = "chords&lyrics"

	// ColumnCombinedAlt is the combined column's name in older exports.
	ColumnCombinedAlt = "chords_lyrics"
)

const (
	minDistinctChords = 2
	minSections       = 3
)

// Record is one raw corpus row.
type Record struct {
	Artist          string
	Title           string
	Chords          string
	Lyrics          string
	ChordsAndLyrics string
	Genres          string
}

// Logger is the subset of the service logger the loader uses.
type Logger interface {
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}

type loadConfig struct {
	workers int
	log     Logger
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithWorkers sets how many songs are normalized concurrently. Values below
// one mean runtime.NumCPU().
func WithWorkers(n int) LoadOption {
	return func(c *loadConfig) {
		c.workers = n
	}
}

// WithLogger sets the logger used to report load statistics.
func WithLogger(log Logger) LoadOption {
	return func(c *loadConfig) {
		if log != nil {
			c.log = log
		}
	}
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	cfg := &loadConfig{log: nopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.NumCPU()
	}
	return cfg
}

// LoadFile opens path and loads it as a CSV corpus.
func LoadFile(ctx context.Context, path string, opts ...LoadOption) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	c, err := Load(ctx, f, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading corpus %s: %w", path, err)
	}
	return c, nil
}

// Load reads a CSV corpus and builds the filtered Corpus.
func Load(ctx context.Context, r io.Reader, opts ...LoadOption) (*Corpus, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}
	return Build(ctx, records, opts...)
}

// ReadRecords decodes CSV rows into records, resolving columns by header
// name. Missing columns read as empty strings.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	combined := ColumnCombined
	if _, ok := cols[combined]; !ok {
		combined = ColumnCombinedAlt
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(records)+1, err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		records = append(records, Record{
			Artist:          field(ColumnArtist),
			Title:           field(ColumnTitle),
			Chords:          field(ColumnChords),
			Lyrics:          field(ColumnLyrics),
			ChordsAndLyrics: field(combined),
			Genres:          field(ColumnGenres),
		})
	}
	return records, nil
}

// Build normalizes records concurrently and keeps the trustworthy ones, in
// input order. IDs are positions in the kept order.
func Build(ctx context.Context, records []Record, opts ...LoadOption) (*Corpus, error) {
	cfg := newLoadConfig(opts)

	results := make([]normalized, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = normalize(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("normalizing songs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("normalizing songs: %w", err)
	}

	c := &Corpus{
		stats: Stats{RowsRead: len(records), Genres: map[string]int{}},
	}
	for _, res := range results {
		if res.malformed {
			c.stats.MalformedRaw++
		}
		switch res.outcome {
		case droppedInline:
			c.stats.DroppedInline++
			continue
		case droppedFewChords:
			c.stats.DroppedFewChords++
			continue
		}

		song := res.song
		song.ID = len(c.songs)
		c.songs = append(c.songs, song)
		c.stats.Genres[song.Genre]++
		if res.fallback {
			c.stats.FallbackUsed++
		}
	}
	c.stats.Kept = len(c.songs)

	cfg.log.Infof("Loaded %s songs from %s rows (%s inline, %s with too few chords dropped; %s via fallback)",
		humanize.Comma(int64(c.stats.Kept)),
		humanize.Comma(int64(c.stats.RowsRead)),
		humanize.Comma(int64(c.stats.DroppedInline)),
		humanize.Comma(int64(c.stats.DroppedFewChords)),
		humanize.Comma(int64(c.stats.FallbackUsed)))
	if c.stats.MalformedRaw > 0 {
		cfg.log.Debugf("%d chord annotations could not be decoded and were treated as empty", c.stats.MalformedRaw)
	}
	return c, nil
}

type outcome int

const (
	kept outcome = iota
	droppedInline
	droppedFewChords
)

type normalized struct {
	song      Song
	outcome   outcome
	fallback  bool
	malformed bool
}

// normalize extracts one record's chords and decides whether to keep it.
//
// Songs annotated in three or more sections are kept when the sections
// yield at least two distinct chords. Songs without sections rely on the
// combined chords-and-lyrics field and are kept on the same chord minimum.
// Songs crammed into one or two sections are always dropped.
func normalize(rec Record) normalized {
	sections := ParseSections(rec.Chords)
	malformed := sections == nil && strings.TrimSpace(rec.Chords) != ""
	size := sections.Len()

	primary := chords.Extract(chords.FromSections(sections.Sections()))
	list := primary
	fallback := false
	if len(primary) == 0 && strings.TrimSpace(rec.ChordsAndLyrics) != "" {
		list = chords.ExtractText(rec.ChordsAndLyrics)
		fallback = len(list) > 0
	}

	res := normalized{fallback: fallback, malformed: malformed}
	switch {
	case size >= minSections && len(primary) >= minDistinctChords:
		res.outcome = kept
	case size == 0 && len(list) >= minDistinctChords:
		res.outcome = kept
	case size > 0 && size < minSections:
		res.outcome = droppedInline
	default:
		res.outcome = droppedFewChords
	}
	if res.outcome != kept {
		return res
	}

	res.song = Song{
		Artist:          rec.Artist,
		Title:           rec.Title,
		Chords:          list,
		ChordSet:        chordSet(list),
		Genre:           ClassifyRaw(rec.Genres),
		ChordsRaw:       rec.Chords,
		Lyrics:          rec.Lyrics,
		ChordsAndLyrics: rec.ChordsAndLyrics,
		GenresRaw:       rec.Genres,
	}
	return res
}
