package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

// Classification is what the path classifier derives from a file path before
// any container inspection happens.
type Classification struct {
	ShowTitle     string
	SeasonNumber  *int
	EpisodeNumber *int
	EpisodeTitle  *string
	IsAnime       bool
	AnimeSource   models.AnimeSource
}

// Episode patterns tried in order against the filename.
var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[Ss](\d{1,2})[Ee](\d{1,3})`),          // S01E02
	regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`),             // 1x02
	regexp.MustCompile(`(?i)\b(\d{1,2})\.(\d{1,3})\b`),            // 1.02
	regexp.MustCompile(`-\s*[Ee]?(\d{1,3})\b`),                    // - 02 / - E02 (episode only)
}

// seasonDirPattern matches "Season 1" / "Season 01" directory names
var seasonDirPattern = regexp.MustCompile(`(?i)^season\s*(\d+)$`)

// episodeTitlePattern pulls the title segment after the episode marker:
// "Show - S01E02 - The Title.mkv" → "The Title"
var episodeTitlePattern = regexp.MustCompile(`(?i)[Ss]\d{1,2}[Ee]\d{1,3}\s*-\s*(.+)$`)

var (
	yearToken    = regexp.MustCompile(`[\(\[\{]\d{4}[\)\]\}]`)
	bracketToken = regexp.MustCompile(`\[.*?\]`)
	releaseToken = regexp.MustCompile(`(?i)\b(1080p|720p|480p|2160p|4k|uhd|bluray|blu-ray|brrip|bdrip|dvdrip|webrip|web-dl|webdl|hdtv|hdrip|x264|x265|h264|h265|hevc|aac|ac3|dts|flac|atmos|remux|proper|repack|dual[\s.-]?audio|multi[\s.-]?sub)\b`)
	trailingSep  = regexp.MustCompile(`\s*-\s*$`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Classify derives show identity and anime status from a file path. basePath
// is the scan location root, mediaType its configured type. Plex-genre
// detection happens later in the reconciler; this layer only knows the path.
func Classify(path, basePath string, mediaType models.MediaType, det models.AnimeDetection) Classification {
	var c Classification

	rel, err := filepath.Rel(basePath, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	if mediaType == models.MediaTypeMovie {
		c.ShowTitle = movieTitle(rel, path)
	} else {
		c = classifyEpisode(rel)
	}

	// Anime detection rules in precedence order. Manual overrides and Plex
	// genres are resolved against the persisted show by the reconciler.
	switch {
	case mediaType == models.MediaTypeAnime:
		c.IsAnime = true
		c.AnimeSource = models.AnimeSourceFolderKeyword
	case pathHasKeyword(path, det.AnimeFolderKeywords):
		c.IsAnime = true
		c.AnimeSource = models.AnimeSourceFolderKeyword
	default:
		c.IsAnime = false
		c.AnimeSource = models.AnimeSourceNone
	}

	return c
}

func classifyEpisode(rel string) Classification {
	var c Classification

	parts := strings.Split(rel, string(filepath.Separator))
	filename := parts[len(parts)-1]
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	// Season and episode from the filename
	for _, pattern := range episodePatterns {
		m := pattern.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		if len(m) == 3 {
			if season, err := strconv.Atoi(m[1]); err == nil {
				c.SeasonNumber = &season
			}
			if episode, err := strconv.Atoi(m[2]); err == nil {
				c.EpisodeNumber = &episode
			}
		} else if len(m) == 2 {
			if episode, err := strconv.Atoi(m[1]); err == nil {
				c.EpisodeNumber = &episode
			}
		}
		break
	}

	// Show title from the directory structure:
	//   Show/Season 1/file.mkv → parts[0]
	//   Show/file.mkv          → parts[0]
	//   file.mkv               → cleaned filename, movie-style
	if len(parts) >= 2 {
		c.ShowTitle = CleanTitle(parts[0])
	} else {
		c.ShowTitle = CleanTitle(stripEpisodeMarkers(stem))
	}

	// Season from a "Season N" directory when the filename didn't supply one
	if c.SeasonNumber == nil {
		for _, part := range parts[:len(parts)-1] {
			if m := seasonDirPattern.FindStringSubmatch(part); m != nil {
				if season, err := strconv.Atoi(m[1]); err == nil {
					c.SeasonNumber = &season
				}
				break
			}
		}
	}

	// Files that parsed an episode but no season sit in season 1 by
	// convention (flat "Show/Episode 02.mkv" layouts)
	if c.SeasonNumber == nil && c.EpisodeNumber != nil {
		one := 1
		c.SeasonNumber = &one
	}

	if m := episodeTitlePattern.FindStringSubmatch(stem); m != nil {
		if title := CleanTitle(m[1]); title != "" {
			c.EpisodeTitle = &title
		}
	}

	return c
}

func movieTitle(rel, path string) string {
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) >= 2 {
		// Parent folder carries the movie title
		return CleanTitle(parts[0])
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return CleanTitle(stem)
}

func stripEpisodeMarkers(stem string) string {
	for _, pattern := range episodePatterns {
		if loc := pattern.FindStringIndex(stem); loc != nil {
			return stem[:loc[0]]
		}
	}
	return stem
}

// CleanTitle strips release-group tags, resolution/codec tokens, and year
// suffixes from a folder or file name.
func CleanTitle(name string) string {
	name = strings.ReplaceAll(name, ".", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = bracketToken.ReplaceAllString(name, "")
	name = yearToken.ReplaceAllString(name, "")
	name = releaseToken.ReplaceAllString(name, "")
	name = trailingSep.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

func pathHasKeyword(path string, keywords []string) bool {
	lower := strings.ToLower(path)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
