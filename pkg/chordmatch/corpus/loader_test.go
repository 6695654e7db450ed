package corpus

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testHeader = []string{"", "artist_name", "song_name", "chords", "lyrics", "chords&lyrics", "genres"}

// writeCorpus renders rows as a CSV corpus with testHeader columns.
func writeCorpus(t *testing.T, header []string, rows [][]string) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	return &buf
}

func fixtureRows() [][]string {
	return [][]string{
		// kept: three sections, four chords
		{"0", "The Band", "Sectioned", `{'intro': '<intro_1>C G', 'verse': '<verse>Am F', 'chorus': 'C G'}`, "la la", "", `['Alternative Rock', 'Indie']`},
		// dropped: one section crams the whole song
		{"1", "Inline", "One Blob", `{'all': 'C G Am F Dm E7'}`, "", "", `['Pop']`},
		// kept: no sections, fallback on the combined field
		{"2", "Fallback", "Combined", "", "words", "C G\nhello\nAm F", `['Bossa Nova']`},
		// dropped: two sections
		{"3", "Two", "Parts", `{'verse': 'C G', 'chorus': 'Am F'}`, "", "", ""},
		// dropped: three sections but a single chord
		{"4", "Drone", "One Chord", `{'a': 'E', 'b': 'E', 'c': 'E'}`, "", "", ""},
		// dropped: no sections and a single fallback chord
		{"5", "Lonely", "Single", "", "", "D", ""},
		// kept: unparseable annotation degrades to no sections, then fallback
		{"6", "", "Broken", `{'verse': 'C G`, "", "G D Em", "not a list"},
		// dropped: three sections without chords, even though the combined field has some
		{"7", "Empty", "Sections", `{'a': 'la', 'b': 'la', 'c': 'la'}`, "", "C G Am", ""},
	}
}

func TestLoadFiltersAndNormalizes(t *testing.T) {
	buf := writeCorpus(t, testHeader, fixtureRows())

	c, err := Load(context.Background(), buf, WithWorkers(4))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	s0, ok := c.Song(0)
	require.True(t, ok)
	assert.Equal(t, 0, s0.ID)
	assert.Equal(t, "The Band", s0.Artist)
	assert.Equal(t, "Sectioned", s0.Title)
	assert.Equal(t, []string{"C", "G", "Am", "F"}, s0.Chords)
	assert.Equal(t, "Rock", s0.Genre)
	assert.Equal(t, "la la", s0.Lyrics)
	assert.Contains(t, s0.ChordsRaw, "<intro_1>")

	s1, ok := c.Song(1)
	require.True(t, ok)
	assert.Equal(t, 1, s1.ID)
	assert.Equal(t, "Combined", s1.Title)
	assert.Equal(t, []string{"C", "G", "Am", "F"}, s1.Chords)
	assert.Equal(t, "Latin", s1.Genre)

	s2, ok := c.Song(2)
	require.True(t, ok)
	assert.Equal(t, "", s2.Artist)
	assert.Equal(t, []string{"G", "D", "Em"}, s2.Chords)
	assert.Equal(t, Other, s2.Genre)

	_, ok = c.Song(3)
	assert.False(t, ok)
	_, ok = c.Song(-1)
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, 8, st.RowsRead)
	assert.Equal(t, 3, st.Kept)
	assert.Equal(t, 2, st.DroppedInline)
	assert.Equal(t, 3, st.DroppedFewChords)
	assert.Equal(t, 5, st.Dropped())
	assert.Equal(t, 2, st.FallbackUsed)
	assert.Equal(t, 1, st.MalformedRaw)
	assert.Equal(t, map[string]int{"Rock": 1, "Latin": 1, Other: 1}, st.Genres)
}

func TestLoadChordSetMatchesList(t *testing.T) {
	c, err := Load(context.Background(), writeCorpus(t, testHeader, fixtureRows()))
	require.NoError(t, err)

	for _, s := range c.Songs() {
		require.NotEmpty(t, s.ChordSet)
		assert.Len(t, s.ChordSet, len(s.Chords), "song %d", s.ID)
		for _, ch := range s.Chords {
			assert.True(t, s.HasChord(ch), "song %d missing %s", s.ID, ch)
		}
	}
}

func TestLoadInlineExclusionOverridesChordCount(t *testing.T) {
	rows := [][]string{
		{"0", "A", "Inline", `{'song': 'C G Am F E'}`, "", "C G Am F E", ""},
	}
	c, err := Load(context.Background(), writeCorpus(t, testHeader, rows))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, c.Stats().DroppedInline)
}

func TestLoadFallbackKeepsEmptySectionSong(t *testing.T) {
	rows := [][]string{
		{"0", "A", "Fallback", "{}", "", "<verse>C G Am F", ""},
	}
	c, err := Load(context.Background(), writeCorpus(t, testHeader, rows))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	s, _ := c.Song(0)
	assert.Equal(t, []string{"C", "G", "Am", "F"}, s.Chords)
}

func TestLoadAlternateCombinedColumn(t *testing.T) {
	header := []string{"artist_name", "song_name", "chords", "chords_lyrics"}
	rows := [][]string{{"A", "Alt", "", "D A Bm G"}}

	c, err := Load(context.Background(), writeCorpus(t, header, rows))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	s, _ := c.Song(0)
	assert.Equal(t, []string{"D", "A", "Bm", "G"}, s.Chords)
	assert.Equal(t, "D A Bm G", s.ChordsAndLyrics)
	assert.Equal(t, Other, s.Genre)
}

func TestLoadWorkerCountDoesNotChangeResult(t *testing.T) {
	var rows [][]string
	for i := 0; i < 50; i++ {
		rows = append(rows, fixtureRows()...)
	}

	sequential, err := Load(context.Background(), writeCorpus(t, testHeader, rows), WithWorkers(1))
	require.NoError(t, err)
	parallel, err := Load(context.Background(), writeCorpus(t, testHeader, rows), WithWorkers(8))
	require.NoError(t, err)

	require.Equal(t, sequential.Len(), parallel.Len())
	assert.Equal(t, sequential.Songs(), parallel.Songs())
	assert.Equal(t, sequential.Stats(), parallel.Stats())
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, writeCorpus(t, testHeader, fixtureRows()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadEmptySource(t *testing.T) {
	_, err := Load(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	c, err := Load(context.Background(), strings.NewReader("artist_name,song_name,chords\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, os.WriteFile(path, writeCorpus(t, testHeader, fixtureRows()).Bytes(), 0o644))

	c, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewReassignsIDs(t *testing.T) {
	c := New([]Song{
		{ID: 9, Title: "a", Chords: []string{"C", "G"}},
		{ID: 4, Title: "b", Chords: []string{"Am"}, Genre: "Pop"},
	})

	s, ok := c.Song(1)
	require.True(t, ok)
	assert.Equal(t, 1, s.ID)
	assert.True(t, s.HasChord("Am"))

	s, _ = c.Song(0)
	assert.Equal(t, Other, s.Genre)
	assert.Equal(t, map[string]int{Other: 1, "Pop": 1}, c.Stats().Genres)
}

func TestNilCorpus(t *testing.T) {
	var c *Corpus
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Songs())
	_, ok := c.Song(0)
	assert.False(t, ok)
	assert.NotNil(t, c.Stats().Genres)
}
