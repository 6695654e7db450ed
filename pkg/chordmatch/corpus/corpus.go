// Package corpus loads the raw song corpus, extracts every song's chords and
// keeps the songs whose annotations can be trusted at chord granularity.
//
// A Corpus is built once and never mutated afterwards, so it can be shared
// between goroutines without locking.
package corpus

// Song is one normalized corpus entry.
type Song struct {
	// ID is the song's position in the filtered corpus. It is only stable
	// within one load.
	ID     int
	Artist string
	Title  string
	// Chords lists the song's chords in first-seen order.
	Chords []string
	// ChordSet holds the same chords as Chords, for overlap arithmetic.
	ChordSet map[string]struct{}
	Genre    string

	// Raw fields, kept for detail lookups.
	ChordsRaw       string
	Lyrics          string
	ChordsAndLyrics string
	GenresRaw       string
}

// HasChord reports whether the song uses chord.
func (s *Song) HasChord(chord string) bool {
	_, ok := s.ChordSet[chord]
	return ok
}

// Stats summarizes one load.
type Stats struct {
	RowsRead int `json:"rows_read"`
	Kept     int `json:"kept"`
	// DroppedInline counts songs annotated in one or two sections.
	DroppedInline int `json:"dropped_inline"`
	// DroppedFewChords counts songs with fewer than two distinct chords.
	DroppedFewChords int `json:"dropped_few_chords"`
	// FallbackUsed counts kept songs whose chords came from the combined
	// chords-and-lyrics field.
	FallbackUsed int            `json:"fallback_used"`
	MalformedRaw int            `json:"malformed_annotations"`
	Genres       map[string]int `json:"genres"`
}

// Dropped returns the number of rows filtered out.
func (s Stats) Dropped() int {
	return s.DroppedInline + s.DroppedFewChords
}

// Corpus is the immutable, filtered song collection.
type Corpus struct {
	songs []Song
	stats Stats
}

// New builds a corpus from already normalized songs, reassigning IDs by
// position. Mostly useful for tests and callers with their own loaders.
func New(songs []Song) *Corpus {
	c := &Corpus{
		songs: make([]Song, len(songs)),
		stats: Stats{RowsRead: len(songs), Kept: len(songs), Genres: map[string]int{}},
	}
	for i, s := range songs {
		s.ID = i
		if s.ChordSet == nil {
			s.ChordSet = chordSet(s.Chords)
		}
		if s.Genre == "" {
			s.Genre = Other
		}
		c.songs[i] = s
		c.stats.Genres[s.Genre]++
	}
	return c
}

// Len returns the number of songs.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.songs)
}

// Song looks a song up by ID. The second result is false for unknown IDs.
func (c *Corpus) Song(id int) (Song, bool) {
	if c == nil || id < 0 || id >= len(c.songs) {
		return Song{}, false
	}
	return c.songs[id], true
}

// Songs returns the songs in ID order. Callers must not modify the slice.
func (c *Corpus) Songs() []Song {
	if c == nil {
		return nil
	}
	return c.songs
}

// Stats returns the load statistics.
func (c *Corpus) Stats() Stats {
	if c == nil {
		return Stats{Genres: map[string]int{}}
	}
	st := c.stats
	st.Genres = make(map[string]int, len(c.stats.Genres))
	for k, v := range c.stats.Genres {
		st.Genres[k] = v
	}
	return st
}

func chordSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, c := range list {
		set[c] = struct{}{}
	}
	return set
}
