// Package mkvedit rewrites default-track flags in Matroska containers via
// mkvpropedit. Only MKV supports this non-destructively, so every other
// container is rejected up front.
package mkvedit

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

var (
	ErrUnsupportedContainer = errors.New("container does not support default-track editing")
	ErrLanguageNotFound     = errors.New("no audio track matches the requested language")
)

type PropEdit struct {
	Path string
}

func NewPropEdit(path string) *PropEdit {
	return &PropEdit{Path: path}
}

// SetDefaultByLanguage flags the first track matching language as default and
// clears the flag on every other audio track. The file on disk is modified;
// callers must re-extract it afterward.
func (p *PropEdit) SetDefaultByLanguage(filePath string, tracks []models.AudioTrack, language string) error {
	if strings.ToLower(filepath.Ext(filePath)) != ".mkv" {
		return fmt.Errorf("%w: %s", ErrUnsupportedContainer, filepath.Ext(filePath))
	}

	target := findTrackIndex(tracks, language)
	if target < 0 {
		return fmt.Errorf("%w: %s", ErrLanguageNotFound, language)
	}

	args := buildArgs(filePath, trackIndexes(tracks), target)
	cmd := exec.Command(p.Path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("mkvpropedit: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// findTrackIndex returns the first audio track index matching language, or -1.
func findTrackIndex(tracks []models.AudioTrack, language string) int {
	want := strings.ToLower(strings.TrimSpace(language))
	for _, t := range tracks {
		if t.Language != nil && strings.ToLower(*t.Language) == want {
			return t.TrackIndex
		}
	}
	return -1
}

func trackIndexes(tracks []models.AudioTrack) []int {
	seen := make(map[int]bool, len(tracks))
	var indexes []int
	for _, t := range tracks {
		if !seen[t.TrackIndex] {
			seen[t.TrackIndex] = true
			indexes = append(indexes, t.TrackIndex)
		}
	}
	sort.Ints(indexes)
	return indexes
}

// buildArgs composes the mkvpropedit command line: clear flag-default on every
// audio track, then set it on the target. mkvpropedit numbers audio tracks
// from 1 (track:a1), our indexes from 0.
func buildArgs(filePath string, indexes []int, target int) []string {
	args := []string{filePath}
	for _, idx := range indexes {
		args = append(args, "--edit", fmt.Sprintf("track:a%d", idx+1), "--set", "flag-default=0")
	}
	args = append(args, "--edit", fmt.Sprintf("track:a%d", target+1), "--set", "flag-default=1")
	return args
}
