// Package chords turns raw chord/lyric annotations into ordered,
// de-duplicated lists of chord symbols.
//
// A chord symbol is a root (A-G, optionally followed by # or b) and an
// optional quality from a closed list (maj7, m, sus4, add9, 7, ...). The
// extractor works in four passes over the annotation text:
//
//  1. section tags such as <verse> or <intro_1> are replaced by a space
//  2. slash chords between two bare roots (A/C#) are split into A C#
//  3. chord tokens are scanned left to right; a token must start and end at
//     a word boundary
//  4. duplicates are dropped, keeping the first occurrence
package chords

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Qualities is the closed list of chord quality suffixes.
var Qualities = []string{
	"maj7", "maj", "min7", "min", "m7", "m",
	"dim7", "dim", "aug", "sus2", "sus4",
	"add9", "add11", "add13", "add",
	"6", "7", "9", "11", "13",
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	slashPattern = regexp.MustCompile(`([A-G][#b]?)/([A-G][#b]?)`)

	// suffixes holds Qualities longest first, followed by the empty quality.
	suffixes = func() []string {
		s := append([]string(nil), Qualities...)
		sort.SliceStable(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
		return append(s, "")
	}()
)

// Extract returns the chord list for a resolved input.
func Extract(in Input) []string {
	return ExtractText(in.Text())
}

// ExtractValue resolves v with FromValue and extracts its chords.
func ExtractValue(v any) []string {
	return Extract(FromValue(v))
}

// ExtractText returns the chords found in text in first-seen order, without
// duplicates. It never fails; text without chords yields an empty list.
func ExtractText(text string) []string {
	out := []string{}
	if text == "" {
		return out
	}

	cleaned := tagPattern.ReplaceAllString(text, " ")
	cleaned = expandSlashChords(cleaned)

	seen := make(map[string]struct{})
	for i := 0; i < len(cleaned); {
		if tok, ok := matchAt(cleaned, i); ok {
			if _, dup := seen[tok]; !dup {
				seen[tok] = struct{}{}
				out = append(out, tok)
			}
			i += len(tok)
			continue
		}
		_, size := utf8.DecodeRuneInString(cleaned[i:])
		i += size
	}
	return out
}

// IsChord reports whether s is exactly one chord symbol.
func IsChord(s string) bool {
	tok, ok := matchAt(s, 0)
	return ok && tok == s
}

// expandSlashChords rewrites Root1/Root2 as "Root1 Root2" when the
// denominator is a bare root (not followed by a quality or other word
// character).
func expandSlashChords(s string) string {
	matches := slashPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if !boundaryAfter(s, end) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(s[m[2]:m[3]])
		b.WriteByte(' ')
		b.WriteString(s[m[4]:m[5]])
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// matchAt tries to read a chord token starting at byte offset i. An
// accidental is tried before the bare root, and longer qualities before
// shorter ones, so C#m7 wins over C#m, C# and C.
func matchAt(s string, i int) (string, bool) {
	if i >= len(s) || !isRoot(s[i]) || !boundaryBefore(s, i) {
		return "", false
	}

	rootEnd := i + 1
	candidates := []int{rootEnd}
	if rootEnd < len(s) && (s[rootEnd] == '#' || s[rootEnd] == 'b') {
		candidates = []int{rootEnd + 1, rootEnd}
	}

	for _, qStart := range candidates {
		rest := s[qStart:]
		for _, q := range suffixes {
			if strings.HasPrefix(rest, q) && boundaryAfter(s, qStart+len(q)) {
				return s[i : qStart+len(q)], true
			}
		}
	}
	return "", false
}

func isRoot(c byte) bool {
	return c >= 'A' && c <= 'G'
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}
