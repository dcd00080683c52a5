package mediainfo

import (
	"strconv"
	"strings"
)

// languageMap folds ISO-639-2 codes and full language names down to
// ISO-639-1. "und" maps to empty, meaning undetermined.
var languageMap = map[string]string{
	"eng": "en", "jpn": "ja", "ger": "de", "deu": "de",
	"fre": "fr", "fra": "fr", "spa": "es", "ita": "it",
	"por": "pt", "rus": "ru", "chi": "zh", "zho": "zh",
	"kor": "ko", "ara": "ar", "hin": "hi", "pol": "pl",
	"dut": "nl", "nld": "nl", "swe": "sv", "nor": "no",
	"dan": "da", "fin": "fi", "tur": "tr", "heb": "he",
	"tha": "th", "vie": "vi", "ind": "id", "msa": "ms",
	"fil": "tl", "und": "",

	"english": "en", "japanese": "ja", "german": "de",
	"french": "fr", "spanish": "es", "italian": "it",
	"portuguese": "pt", "russian": "ru", "chinese": "zh",
	"korean": "ko", "arabic": "ar", "hindi": "hi",
}

// NormalizeLanguage lowers a container language tag to an ISO-639-1 code.
// Returns nil when the tag is absent or undetermined.
func NormalizeLanguage(raw string) *string {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "" {
		return nil
	}

	if len(code) == 2 && code != "un" {
		return &code
	}

	if mapped, ok := languageMap[code]; ok {
		if mapped == "" {
			return nil
		}
		return &mapped
	}

	// Unknown 3+ letter tag: first two letters are often a valid 639-1 code
	if len(code) >= 3 {
		short := code[:2]
		return &short
	}
	return nil
}

// LanguageFromTitle guesses a language from a track title like
// "Japanese (Stereo)" when the container tag is missing.
func LanguageFromTitle(title string) *string {
	lower := strings.ToLower(title)
	for name, code := range languageMap {
		// Only full names are meaningful inside titles
		if len(name) <= 3 || code == "" {
			continue
		}
		if strings.Contains(lower, name) {
			c := code
			return &c
		}
	}
	return nil
}

// ChannelLayout renders a channel count as a familiar layout string when the
// container does not report one.
func ChannelLayout(channels int, layout string) string {
	if layout != "" {
		return layout
	}
	switch channels {
	case 1:
		return "1.0"
	case 2:
		return "2.0"
	case 3:
		return "2.1"
	case 6:
		return "5.1"
	case 7:
		return "6.1"
	case 8:
		return "7.1"
	}
	return strconv.Itoa(channels) + "ch"
}
