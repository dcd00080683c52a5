package mkvedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

func lang(s string) *string { return &s }

func TestSetDefaultByLanguageRejectsNonMKV(t *testing.T) {
	p := NewPropEdit("mkvpropedit")
	tracks := []models.AudioTrack{{TrackIndex: 0, Language: lang("en")}}

	err := p.SetDefaultByLanguage("/media/movie.mp4", tracks, "en")
	assert.ErrorIs(t, err, ErrUnsupportedContainer)

	err = p.SetDefaultByLanguage("/media/movie.avi", tracks, "en")
	assert.ErrorIs(t, err, ErrUnsupportedContainer)
}

func TestSetDefaultByLanguageLanguageNotFound(t *testing.T) {
	p := NewPropEdit("mkvpropedit")
	tracks := []models.AudioTrack{
		{TrackIndex: 0, Language: lang("fr")},
		{TrackIndex: 1, Language: nil},
	}

	err := p.SetDefaultByLanguage("/media/show.mkv", tracks, "en")
	assert.ErrorIs(t, err, ErrLanguageNotFound)
}

func TestFindTrackIndex(t *testing.T) {
	tracks := []models.AudioTrack{
		{TrackIndex: 0, Language: lang("ja")},
		{TrackIndex: 1, Language: lang("EN")},
		{TrackIndex: 2, Language: lang("en")},
	}

	assert.Equal(t, 0, findTrackIndex(tracks, "ja"))
	// First match wins, case-insensitively
	assert.Equal(t, 1, findTrackIndex(tracks, "en"))
	assert.Equal(t, 1, findTrackIndex(tracks, " EN "))
	assert.Equal(t, -1, findTrackIndex(tracks, "de"))
	assert.Equal(t, -1, findTrackIndex(nil, "en"))
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs("/media/show.mkv", []int{0, 1, 2}, 1)

	require.Equal(t, []string{
		"/media/show.mkv",
		"--edit", "track:a1", "--set", "flag-default=0",
		"--edit", "track:a2", "--set", "flag-default=0",
		"--edit", "track:a3", "--set", "flag-default=0",
		"--edit", "track:a2", "--set", "flag-default=1",
	}, args)
}

func TestTrackIndexesDedupesAndSorts(t *testing.T) {
	tracks := []models.AudioTrack{
		{TrackIndex: 2}, {TrackIndex: 0}, {TrackIndex: 2}, {TrackIndex: 1},
	}
	assert.Equal(t, []int{0, 1, 2}, trackIndexes(tracks))
}
