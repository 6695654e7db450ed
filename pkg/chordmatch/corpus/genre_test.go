package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		tags []string
		want string
	}{
		{[]string{"Alternative Rock", "Indie"}, "Rock"},
		{[]string{"Bossa Nova"}, "Latin"},
		{[]string{"Heavy Metal", "Hard Rock"}, "Metal"},
		{[]string{"Pop Punk"}, "Rock"},
		{[]string{"Dance Pop", "Soul"}, "Pop"},
		{[]string{"Southern Hip Hop"}, "Hip Hop"},
		{[]string{"Gangsta Rap"}, "Hip Hop"},
		{[]string{"Rap"}, Other},
		{[]string{"Indie", "Rap"}, "Hip Hop"},
		{[]string{"Trap"}, Other},
		{[]string{"Neo Soul"}, "R&B / Soul"},
		{[]string{"Contemporary R&B"}, "R&B / Soul"},
		{[]string{"Rhythm and Blues"}, "R&B / Soul"},
		{[]string{"Outlaw Country"}, "Country"},
		{[]string{"Smooth Jazz"}, "Jazz"},
		{[]string{"Delta Blues"}, "Blues"},
		{[]string{"Deep House"}, "Electronic"},
		{[]string{"EDM"}, "Electronic"},
		{[]string{"Indie Folk"}, "Folk"},
		{[]string{"Acoustic"}, "Folk"},
		{[]string{"Classical"}, "Classical"},
		{[]string{"Roots Reggae"}, "Reggae"},
		{[]string{"Samba"}, "Latin"},
		{[]string{"Indie"}, Other},
		{nil, Other},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.tags), "tags %v", tt.tags)
	}
}

func TestClassifyRaw(t *testing.T) {
	assert.Equal(t, "Rock", ClassifyRaw(`['Alternative Rock', 'Indie']`))
	assert.Equal(t, "Latin", ClassifyRaw(`["Bossa Nova"]`))
	assert.Equal(t, Other, ClassifyRaw(""))
	assert.Equal(t, Other, ClassifyRaw("rock"))
	assert.Equal(t, Other, ClassifyRaw("['rock'"))
}

func TestGenres(t *testing.T) {
	labels := Genres()
	assert.Equal(t, "Metal", labels[0])
	assert.Equal(t, Other, labels[len(labels)-1])
	assert.Len(t, labels, 14)

	for _, l := range labels {
		assert.True(t, IsGenre(l), l)
	}
	assert.False(t, IsGenre("rock"))
	assert.False(t, IsGenre(""))
}
