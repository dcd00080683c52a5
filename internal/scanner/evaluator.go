package scanner

import (
	"fmt"
	"strings"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

// Issue codes produced by Evaluate.
const (
	IssueNoAudio          = "NO_AUDIO"
	IssueMissingEnglish   = "MISSING_ENGLISH"
	IssueMissingJapanese  = "MISSING_JAPANESE"
	IssueMissingDualAudio = "MISSING_DUAL_AUDIO"
	IssueWrongDefault     = "WRONG_DEFAULT"
	IssueNoPreferredCodec = "NO_PREFERRED_CODEC"
)

type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Verdict is the result of evaluating one file's audio tracks against the
// active preferences.
type Verdict struct {
	Issues []Issue
}

func (v Verdict) HasIssues() bool {
	return len(v.Issues) > 0
}

// Details joins all issue messages for persistence on the media file.
func (v Verdict) Details() *string {
	if len(v.Issues) == 0 {
		return nil
	}
	msgs := make([]string, len(v.Issues))
	for i, issue := range v.Issues {
		msgs[i] = issue.Message
	}
	s := strings.Join(msgs, "; ")
	return &s
}

func (v Verdict) Has(code string) bool {
	for _, issue := range v.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// Evaluate applies the preference ruleset to a file's audio tracks. Pure and
// side-effect-free: re-run on every scan, the result wholly replaces the
// prior verdict.
func Evaluate(tracks []models.AudioTrack, isAnime bool, prefs models.AudioPreferences) Verdict {
	var v Verdict

	if len(tracks) == 0 {
		v.Issues = append(v.Issues, Issue{Code: IssueNoAudio, Message: "No audio tracks detected"})
		return v
	}

	languages := make(map[string]bool)
	var defaultLanguage *string
	for _, t := range tracks {
		if t.Language != nil {
			languages[strings.ToLower(*t.Language)] = true
		}
		if t.IsDefault {
			if t.Language != nil {
				lang := strings.ToLower(*t.Language)
				defaultLanguage = &lang
			}
		}
	}

	if !isAnime && prefs.RequireEnglishNonAnime && !languages["en"] {
		v.Issues = append(v.Issues, Issue{
			Code:    IssueMissingEnglish,
			Message: "Missing English audio track",
		})
	}

	if isAnime && prefs.RequireJapaneseAnime && !languages["ja"] {
		v.Issues = append(v.Issues, Issue{
			Code:    IssueMissingJapanese,
			Message: "Missing Japanese audio track (anime)",
		})
	}

	if isAnime && prefs.RequireDualAudioAnime && !(languages["en"] && languages["ja"]) {
		if !languages["en"] {
			v.Issues = append(v.Issues, Issue{
				Code:    IssueMissingDualAudio,
				Message: "Missing English audio for dual audio (anime)",
			})
		}
		if !languages["ja"] {
			v.Issues = append(v.Issues, Issue{
				Code:    IssueMissingDualAudio,
				Message: "Missing Japanese audio for dual audio (anime)",
			})
		}
	}

	// The default track should carry the preferred language for the content
	// type, but only when that language exists in the file at all.
	if prefs.CheckDefaultTrack && defaultLanguage != nil {
		expected := "en"
		expectedName := "English"
		if isAnime {
			expected = "ja"
			expectedName = "Japanese"
		}
		if languages[expected] && *defaultLanguage != expected {
			v.Issues = append(v.Issues, Issue{
				Code: IssueWrongDefault,
				Message: fmt.Sprintf("Default audio track is '%s', expected %s",
					*defaultLanguage, expectedName),
			})
		}
	}

	if len(prefs.PreferredCodecs) > 0 {
		preferred := make(map[string]bool, len(prefs.PreferredCodecs))
		for _, c := range prefs.PreferredCodecs {
			preferred[strings.ToLower(c)] = true
		}
		var present []string
		found := false
		for _, t := range tracks {
			if t.Codec == nil {
				continue
			}
			codec := strings.ToLower(*t.Codec)
			present = append(present, codec)
			if preferred[codec] {
				found = true
			}
		}
		if len(present) > 0 && !found {
			v.Issues = append(v.Issues, Issue{
				Code:    IssueNoPreferredCodec,
				Message: fmt.Sprintf("No preferred audio codec found (has: %s)", strings.Join(present, ", ")),
			})
		}
	}

	return v
}
