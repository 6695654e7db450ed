package chordmatch

// RecommendRequest carries the user's known chords and optional filters.
type RecommendRequest struct {
	Chords []string // Chords the user can play
	Artist string   // Case-insensitive substring of the artist name
	Title  string   // Case-insensitive substring of the song title
	Genre  string   // Exact genre label
	Limit  int      // Maximum number of results, 0 for all
}

// Recommendation is one ranked song with its rating summary.
type Recommendation struct {
	SongID        int      `json:"song_id"`
	Artist        string   `json:"artist_name"`
	Title         string   `json:"song_name"`
	Chords        []string `json:"chord_list"`
	Genre         string   `json:"genre"`
	Missing       int      `json:"missing_chords"`
	Known         int      `json:"known_chords"`
	RatingAverage *float64 `json:"rating_average"`
	RatingCount   int      `json:"rating_count"`
}

// SongDetail is the full record of one corpus song.
type SongDetail struct {
	SongID          int      `json:"song_id"`
	Artist          string   `json:"artist_name"`
	Title           string   `json:"song_name"`
	Genre           string   `json:"genre"`
	Chords          []string `json:"chord_list"`
	ChordsRaw       string   `json:"chords_raw"`
	Lyrics          string   `json:"lyrics"`
	ChordsAndLyrics string   `json:"chords_and_lyrics"`
	Genres          []string `json:"genres"`
	RatingAverage   *float64 `json:"rating_average"`
	RatingCount     int      `json:"rating_count"`
}

// RatingSummary aggregates a song's ratings. Average is nil when Count is 0.
type RatingSummary struct {
	Average *float64 `json:"rating_average"`
	Count   int      `json:"rating_count"`
}
