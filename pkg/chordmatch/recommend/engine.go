// Package recommend ranks corpus songs by how well a player's known chords
// cover them.
//
// Songs are ordered by the number of chords the player still has to learn
// (fewest first), then by how many of the player's chords they use (most
// first). Remaining ties keep corpus order.
package recommend

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
)

// Query describes one recommendation request. Zero-valued filters do not
// constrain the result.
type Query struct {
	// Known lists the chords the player can already play.
	Known []string
	// Artist and Title are case-insensitive substring filters.
	Artist string
	Title  string
	// Genre must equal the song's genre label exactly.
	Genre string
	// Limit caps the number of results after ranking. Zero means no cap.
	Limit int
}

// Result is one ranked song.
type Result struct {
	SongID int
	Artist string
	Title  string
	Chords []string
	Genre  string
	// Missing counts the song's chords the player does not know.
	Missing int
	// Known counts the song's chords the player knows.
	Known int
}

// Engine answers recommendation queries against one immutable corpus. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	corpus *corpus.Corpus
}

// NewEngine returns an engine over c.
func NewEngine(c *corpus.Corpus) *Engine {
	return &Engine{corpus: c}
}

// Corpus returns the corpus the engine ranks.
func (e *Engine) Corpus() *corpus.Corpus {
	return e.corpus
}

// Recommend filters and ranks the corpus for q. It never fails; an empty
// filtered corpus yields an empty slice.
func (e *Engine) Recommend(q Query) []Result {
	known := KnownSet(q.Known)
	artist := fold(q.Artist)
	title := fold(q.Title)

	out := []Result{}
	for _, s := range e.corpus.Songs() {
		if q.Genre != "" && s.Genre != q.Genre {
			continue
		}
		if artist != "" && !strings.Contains(fold(s.Artist), artist) {
			continue
		}
		if title != "" && !strings.Contains(fold(s.Title), title) {
			continue
		}

		missing, overlap := Overlap(s.ChordSet, known)
		out = append(out, Result{
			SongID:  s.ID,
			Artist:  s.Artist,
			Title:   s.Title,
			Chords:  s.Chords,
			Genre:   s.Genre,
			Missing: missing,
			Known:   overlap,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Missing != out[j].Missing {
			return out[i].Missing < out[j].Missing
		}
		return out[i].Known > out[j].Known
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// fold lowercases s with full Unicode case folding. A Caser keeps state, so
// each call gets a fresh one.
func fold(s string) string {
	if s == "" {
		return s
	}
	return cases.Fold().String(s)
}

// KnownSet trims chord names, drops empty ones and returns the rest as a set.
func KnownSet(chords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(chords))
	for _, c := range chords {
		if c = strings.TrimSpace(c); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// Overlap returns how many chords of song are missing from known and how
// many are in it.
func Overlap(song, known map[string]struct{}) (missing, overlap int) {
	for c := range song {
		if _, ok := known[c]; ok {
			overlap++
		} else {
			missing++
		}
	}
	return missing, overlap
}

// ParseChordList splits a comma-separated chord list, as sent by clients,
// into trimmed non-empty names.
func ParseChordList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
