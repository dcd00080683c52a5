package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

func TestClassifyStandardEpisode(t *testing.T) {
	c := Classify(
		"/media/tv/Breaking Bad/Season 1/Breaking.Bad.S01E02.1080p.BluRay.mkv",
		"/media/tv", models.MediaTypeTV, models.DefaultAnimeDetection())

	assert.Equal(t, "Breaking Bad", c.ShowTitle)
	require.NotNil(t, c.SeasonNumber)
	assert.Equal(t, 1, *c.SeasonNumber)
	require.NotNil(t, c.EpisodeNumber)
	assert.Equal(t, 2, *c.EpisodeNumber)
	assert.False(t, c.IsAnime)
	assert.Equal(t, models.AnimeSourceNone, c.AnimeSource)
}

func TestClassifyAlternateEpisodePattern(t *testing.T) {
	c := Classify(
		"/media/tv/The Wire/The Wire 3x08.mkv",
		"/media/tv", models.MediaTypeTV, models.DefaultAnimeDetection())

	assert.Equal(t, "The Wire", c.ShowTitle)
	require.NotNil(t, c.SeasonNumber)
	assert.Equal(t, 3, *c.SeasonNumber)
	require.NotNil(t, c.EpisodeNumber)
	assert.Equal(t, 8, *c.EpisodeNumber)
}

func TestClassifySeasonFromDirectory(t *testing.T) {
	c := Classify(
		"/media/tv/Some Show/Season 3/Episode - 04.mkv",
		"/media/tv", models.MediaTypeTV, models.DefaultAnimeDetection())

	assert.Equal(t, "Some Show", c.ShowTitle)
	require.NotNil(t, c.SeasonNumber)
	assert.Equal(t, 3, *c.SeasonNumber)
	require.NotNil(t, c.EpisodeNumber)
	assert.Equal(t, 4, *c.EpisodeNumber)
}

func TestClassifyEpisodeWithoutSeasonDefaultsToOne(t *testing.T) {
	c := Classify(
		"/media/tv/Cowboy Bebop/Episode - 05.mkv",
		"/media/tv", models.MediaTypeTV, models.DefaultAnimeDetection())

	require.NotNil(t, c.SeasonNumber)
	assert.Equal(t, 1, *c.SeasonNumber)
	require.NotNil(t, c.EpisodeNumber)
	assert.Equal(t, 5, *c.EpisodeNumber)
}

func TestClassifyEpisodeTitle(t *testing.T) {
	c := Classify(
		"/media/tv/Firefly/Season 1/Firefly - S01E01 - Serenity.mkv",
		"/media/tv", models.MediaTypeTV, models.DefaultAnimeDetection())

	assert.Equal(t, "Firefly", c.ShowTitle)
	require.NotNil(t, c.EpisodeTitle)
	assert.Equal(t, "Serenity", *c.EpisodeTitle)
}

func TestClassifyMovieFromFolder(t *testing.T) {
	c := Classify(
		"/media/movies/Blade Runner 2049 (2017)/Blade.Runner.2049.2160p.mkv",
		"/media/movies", models.MediaTypeMovie, models.DefaultAnimeDetection())

	assert.Equal(t, "Blade Runner 2049", c.ShowTitle)
	assert.Nil(t, c.SeasonNumber)
	assert.Nil(t, c.EpisodeNumber)
}

func TestClassifyMovieFlatFile(t *testing.T) {
	c := Classify(
		"/media/movies/Heat (1995) [1080p].mkv",
		"/media/movies", models.MediaTypeMovie, models.DefaultAnimeDetection())

	assert.Equal(t, "Heat", c.ShowTitle)
}

func TestClassifyAnimeLocation(t *testing.T) {
	c := Classify(
		"/media/anime/Frieren/Season 1/Frieren - S01E04.mkv",
		"/media/anime", models.MediaTypeAnime, models.DefaultAnimeDetection())

	assert.True(t, c.IsAnime)
	assert.Equal(t, models.AnimeSourceFolderKeyword, c.AnimeSource)
}

func TestClassifyAnimeFolderKeyword(t *testing.T) {
	c := Classify(
		"/media/tv/Anime/One Piece/Season 1/One Piece - S01E01.mkv",
		"/media/tv", models.MediaTypeTV, models.DefaultAnimeDetection())

	assert.True(t, c.IsAnime)
	assert.Equal(t, models.AnimeSourceFolderKeyword, c.AnimeSource)
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"Breaking.Bad":                  "Breaking Bad",
		"Show_Name (2019)":              "Show Name",
		"[Group] Frieren [1080p]":       "Frieren",
		"The.Expanse.1080p.BluRay.x264": "The Expanse",
		"Attack on Titan 720p x265 -":   "Attack on Titan",
		"Blade Runner 2049":             "Blade Runner 2049",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanTitle(in), "input %q", in)
	}
}
