package corpus

import "strings"

// Other is the genre of songs no rule matches.
const Other = "Other"

type genreRule struct {
	label    string
	keywords []string
}

// genreRules are checked in order; the first rule with a keyword contained
// in the lowercased tag text wins.
var genreRules = []genreRule{
	{"Metal", []string{"metal"}},
	{"Rock", []string{"rock", "punk"}},
	{"Pop", []string{"pop"}},
	{"Hip Hop", []string{"hip hop", " rap"}},
	{"R&B / Soul", []string{"r&b", "soul", "rhythm and blues"}},
	{"Country", []string{"country"}},
	{"Jazz", []string{"jazz"}},
	{"Blues", []string{"blues"}},
	{"Electronic", []string{"electronic", "edm", "techno", "house", "trance"}},
	{"Folk", []string{"folk", "acoustic"}},
	{"Classical", []string{"classical"}},
	{"Reggae", []string{"reggae"}},
	{"Latin", []string{"latin", "bossa", "samba"}},
}

// Genres lists every label Classify can return, in rule order, with Other
// last.
func Genres() []string {
	out := make([]string, 0, len(genreRules)+1)
	for _, r := range genreRules {
		out = append(out, r.label)
	}
	return append(out, Other)
}

// IsGenre reports whether label is one of Genres.
func IsGenre(label string) bool {
	if label == Other {
		return true
	}
	for _, r := range genreRules {
		if r.label == label {
			return true
		}
	}
	return false
}

// Classify buckets a song's genre tags into one broad label.
//
// The tags are joined with single spaces, so " rap" matches "gangsta rap" or
// a "rap" tag after the first, but neither "trap" nor a leading "rap".
func Classify(tags []string) string {
	if len(tags) == 0 {
		return Other
	}
	joined := strings.ToLower(strings.Join(tags, " "))
	for _, r := range genreRules {
		for _, kw := range r.keywords {
			if strings.Contains(joined, kw) {
				return r.label
			}
		}
	}
	return Other
}

// ClassifyRaw decodes a raw genre-tags field and classifies it. Unparseable
// fields classify as Other.
func ClassifyRaw(raw string) string {
	return Classify(ParseStrings(raw))
}
