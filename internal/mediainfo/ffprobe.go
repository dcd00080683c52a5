package mediainfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrExtraction marks a file the inspection tool could not read or parse.
// Callers match it with errors.Is and treat it as a per-file failure.
var ErrExtraction = errors.New("extraction failed")

// Track is one audio track descriptor in container order. TrackIndex counts
// audio tracks only, which keeps it stable against video/subtitle streams.
type Track struct {
	TrackIndex    int
	Language      *string
	LanguageRaw   *string
	Codec         *string
	Channels      *int
	ChannelLayout *string
	Bitrate       *int64
	IsDefault     bool
	IsForced      bool
	Title         *string
}

// Result is the structured output of probing a single file.
type Result struct {
	Container  *string
	DurationMS *int64
	Tracks     []Track
}

type FFprobe struct {
	Path string
}

func NewFFprobe(path string) *FFprobe {
	return &FFprobe{Path: path}
}

func (f *FFprobe) Probe(filePath string) (*Result, error) {
	cmd := exec.Command(f.Path, "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", filePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", ErrExtraction, filepath.Base(filePath), err)
	}
	return ParseProbeOutput(output)
}

// ffprobe JSON shapes

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type probeStream struct {
	CodecType     string            `json:"codec_type"`
	CodecName     string            `json:"codec_name"`
	Channels      int               `json:"channels"`
	ChannelLayout string            `json:"channel_layout"`
	BitRate       string            `json:"bit_rate"`
	Disposition   probeDisposition  `json:"disposition"`
	Tags          map[string]string `json:"tags"`
}

type probeDisposition struct {
	Default int `json:"default"`
	Forced  int `json:"forced"`
}

// containerNames maps ffprobe format_name tokens to display names matching
// what users see in other inspection tools.
var containerNames = map[string]string{
	"matroska": "Matroska",
	"webm":     "WebM",
	"mov":      "QuickTime",
	"mp4":      "MPEG-4",
	"m4a":      "MPEG-4",
	"avi":      "AVI",
	"asf":      "Windows Media",
	"mpegts":   "MPEG-TS",
}

// ParseProbeOutput turns raw ffprobe JSON into a Result. Split out from Probe
// so parsing is testable without the binary.
func ParseProbeOutput(data []byte) (*Result, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parse ffprobe output: %v", ErrExtraction, err)
	}

	result := &Result{}

	if name := containerName(out.Format.FormatName); name != "" {
		result.Container = &name
	}
	if out.Format.Duration != "" {
		if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			ms := int64(secs * 1000)
			result.DurationMS = &ms
		}
	}

	audioIndex := 0
	for _, s := range out.Streams {
		if s.CodecType != "audio" {
			continue
		}

		track := Track{
			TrackIndex: audioIndex,
			IsDefault:  s.Disposition.Default == 1,
			IsForced:   s.Disposition.Forced == 1,
		}

		if s.CodecName != "" {
			codec := s.CodecName
			track.Codec = &codec
		}
		if s.Channels > 0 {
			ch := s.Channels
			track.Channels = &ch
			layout := ChannelLayout(s.Channels, s.ChannelLayout)
			track.ChannelLayout = &layout
		}
		if s.BitRate != "" {
			if br, err := strconv.ParseInt(s.BitRate, 10, 64); err == nil {
				track.Bitrate = &br
			}
		}
		if title := s.Tags["title"]; title != "" {
			t := title
			track.Title = &t
		}

		if raw := s.Tags["language"]; raw != "" {
			r := raw
			track.LanguageRaw = &r
			track.Language = NormalizeLanguage(raw)
		}
		// Fall back to the track title when the container tag is missing
		if track.Language == nil && track.Title != nil {
			track.Language = LanguageFromTitle(*track.Title)
		}

		result.Tracks = append(result.Tracks, track)
		audioIndex++
	}

	return result, nil
}

func containerName(formatName string) string {
	for _, token := range strings.Split(formatName, ",") {
		if name, ok := containerNames[token]; ok {
			return name
		}
	}
	// Unrecognized but present: report the first token as-is
	if formatName != "" {
		return strings.Split(formatName, ",")[0]
	}
	return ""
}
