package mediainfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProbeJSON = `{
	"format": {
		"format_name": "matroska,webm",
		"duration": "1422.500000"
	},
	"streams": [
		{
			"codec_type": "video",
			"codec_name": "h264",
			"disposition": {"default": 1, "forced": 0}
		},
		{
			"codec_type": "audio",
			"codec_name": "eac3",
			"channels": 6,
			"channel_layout": "5.1(side)",
			"bit_rate": "640000",
			"disposition": {"default": 1, "forced": 0},
			"tags": {"language": "eng", "title": "Surround 5.1"}
		},
		{
			"codec_type": "subtitle",
			"codec_name": "subrip",
			"disposition": {"default": 0, "forced": 1},
			"tags": {"language": "eng"}
		},
		{
			"codec_type": "audio",
			"codec_name": "aac",
			"channels": 2,
			"disposition": {"default": 0, "forced": 0},
			"tags": {"language": "jpn"}
		}
	]
}`

func TestParseProbeOutput(t *testing.T) {
	result, err := ParseProbeOutput([]byte(sampleProbeJSON))
	require.NoError(t, err)

	require.NotNil(t, result.Container)
	assert.Equal(t, "Matroska", *result.Container)
	require.NotNil(t, result.DurationMS)
	assert.Equal(t, int64(1422500), *result.DurationMS)

	// Video and subtitle streams are skipped; TrackIndex counts audio only
	require.Len(t, result.Tracks, 2)

	first := result.Tracks[0]
	assert.Equal(t, 0, first.TrackIndex)
	assert.True(t, first.IsDefault)
	assert.False(t, first.IsForced)
	require.NotNil(t, first.Language)
	assert.Equal(t, "en", *first.Language)
	require.NotNil(t, first.LanguageRaw)
	assert.Equal(t, "eng", *first.LanguageRaw)
	require.NotNil(t, first.Codec)
	assert.Equal(t, "eac3", *first.Codec)
	require.NotNil(t, first.Channels)
	assert.Equal(t, 6, *first.Channels)
	require.NotNil(t, first.ChannelLayout)
	assert.Equal(t, "5.1(side)", *first.ChannelLayout)
	require.NotNil(t, first.Bitrate)
	assert.Equal(t, int64(640000), *first.Bitrate)
	require.NotNil(t, first.Title)
	assert.Equal(t, "Surround 5.1", *first.Title)

	second := result.Tracks[1]
	assert.Equal(t, 1, second.TrackIndex)
	assert.False(t, second.IsDefault)
	require.NotNil(t, second.Language)
	assert.Equal(t, "ja", *second.Language)
	require.NotNil(t, second.ChannelLayout)
	assert.Equal(t, "2.0", *second.ChannelLayout)
	assert.Nil(t, second.Bitrate)
	assert.Nil(t, second.Title)
}

func TestParseProbeOutputLanguageFromTitle(t *testing.T) {
	data := `{
		"format": {"format_name": "matroska"},
		"streams": [{
			"codec_type": "audio",
			"codec_name": "aac",
			"channels": 2,
			"disposition": {"default": 1, "forced": 0},
			"tags": {"title": "Japanese (Stereo)"}
		}]
	}`
	result, err := ParseProbeOutput([]byte(data))
	require.NoError(t, err)
	require.Len(t, result.Tracks, 1)

	track := result.Tracks[0]
	assert.Nil(t, track.LanguageRaw)
	require.NotNil(t, track.Language)
	assert.Equal(t, "ja", *track.Language)
}

func TestParseProbeOutputUndeterminedLanguage(t *testing.T) {
	data := `{
		"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2"},
		"streams": [{
			"codec_type": "audio",
			"codec_name": "aac",
			"channels": 2,
			"disposition": {"default": 0, "forced": 0},
			"tags": {"language": "und"}
		}]
	}`
	result, err := ParseProbeOutput([]byte(data))
	require.NoError(t, err)

	require.NotNil(t, result.Container)
	assert.Equal(t, "QuickTime", *result.Container)
	require.Len(t, result.Tracks, 1)
	assert.Nil(t, result.Tracks[0].Language)
	require.NotNil(t, result.Tracks[0].LanguageRaw)
	assert.Equal(t, "und", *result.Tracks[0].LanguageRaw)
}

func TestParseProbeOutputUnknownContainer(t *testing.T) {
	data := `{"format": {"format_name": "nut"}, "streams": []}`
	result, err := ParseProbeOutput([]byte(data))
	require.NoError(t, err)
	require.NotNil(t, result.Container)
	assert.Equal(t, "nut", *result.Container)
	assert.Empty(t, result.Tracks)
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	_, err := ParseProbeOutput([]byte("not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
}
