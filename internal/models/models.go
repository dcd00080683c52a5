package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Enums ────────────────────

type MediaType string

const (
	MediaTypeTV    MediaType = "tv"
	MediaTypeMovie MediaType = "movie"
	MediaTypeAnime MediaType = "anime"
)

func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeTV, MediaTypeMovie, MediaTypeAnime:
		return true
	}
	return false
}

// AnimeSource records where a show's anime flag came from so later scans
// know whether they are allowed to change it.
type AnimeSource string

const (
	AnimeSourceNone          AnimeSource = ""
	AnimeSourcePlexGenre     AnimeSource = "plex-genre"
	AnimeSourceFolderKeyword AnimeSource = "folder-keyword"
	AnimeSourceManual        AnimeSource = "manual"
)

// ──────────────────── User ────────────────────

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PlexUserID   string    `json:"plex_user_id" db:"plex_user_id"`
	PlexUsername string    `json:"plex_username" db:"plex_username"`
	PlexEmail    *string   `json:"plex_email,omitempty" db:"plex_email"`
	PlexToken    string    `json:"-" db:"plex_token"` // encrypted at rest
	PlexThumbURL *string   `json:"plex_thumb_url,omitempty" db:"plex_thumb_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastLogin    time.Time `json:"last_login" db:"last_login"`
}

// ──────────────────── Scan Locations ────────────────────

type ScanLocation struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"-" db:"user_id"`
	Path        string     `json:"path" db:"path"`
	Label       string     `json:"label" db:"label"`
	MediaType   MediaType  `json:"media_type" db:"media_type"`
	Enabled     bool       `json:"enabled" db:"enabled"`
	LastScanned *time.Time `json:"last_scanned,omitempty" db:"last_scanned"`
	FileCount   int        `json:"file_count" db:"file_count"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ──────────────────── Shows / Seasons ────────────────────

type Show struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"-" db:"user_id"`
	Title         string      `json:"title" db:"title"`
	MediaType     MediaType   `json:"media_type" db:"media_type"`
	IsAnime       bool        `json:"is_anime" db:"is_anime"`
	AnimeSource   AnimeSource `json:"anime_source" db:"anime_source"`
	PlexRatingKey *string     `json:"plex_rating_key,omitempty" db:"plex_rating_key"`
	ThumbURL      *string     `json:"thumb_url,omitempty" db:"thumb_url"`
	SeasonCount   int         `json:"season_count" db:"season_count"`
	EpisodeCount  int         `json:"episode_count" db:"episode_count"`
	FileCount     int         `json:"file_count" db:"file_count"`
	IssuesCount   int         `json:"issues_count" db:"issues_count"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

type Season struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ShowID       uuid.UUID `json:"show_id" db:"show_id"`
	SeasonNumber int       `json:"season_number" db:"season_number"`
}

// ──────────────────── Media Files / Audio Tracks ────────────────────

type MediaFile struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"-" db:"user_id"`
	ShowID          *uuid.UUID `json:"show_id,omitempty" db:"show_id"`
	SeasonID        *uuid.UUID `json:"season_id,omitempty" db:"season_id"`
	FilePath        string     `json:"file_path" db:"file_path"`
	Filename        string     `json:"filename" db:"filename"`
	EpisodeNumber   *int       `json:"episode_number,omitempty" db:"episode_number"`
	EpisodeTitle    *string    `json:"episode_title,omitempty" db:"episode_title"`
	FileSize        int64      `json:"file_size" db:"file_size"`
	ContainerFormat *string    `json:"container_format,omitempty" db:"container_format"`
	DurationMS      *int64     `json:"duration_ms,omitempty" db:"duration_ms"`
	LastScanned     time.Time  `json:"last_scanned" db:"last_scanned"`
	LastModified    time.Time  `json:"last_modified" db:"last_modified"`
	HasIssues       bool       `json:"has_issues" db:"has_issues"`
	IssueDetails    *string    `json:"issue_details,omitempty" db:"issue_details"`
}

type AudioTrack struct {
	ID            uuid.UUID `json:"id" db:"id"`
	MediaFileID   uuid.UUID `json:"media_file_id" db:"media_file_id"`
	TrackIndex    int       `json:"track_index" db:"track_index"`
	Language      *string   `json:"language,omitempty" db:"language"`
	LanguageRaw   *string   `json:"language_raw,omitempty" db:"language_raw"`
	Codec         *string   `json:"codec,omitempty" db:"codec"`
	Channels      *int      `json:"channels,omitempty" db:"channels"`
	ChannelLayout *string   `json:"channel_layout,omitempty" db:"channel_layout"`
	Bitrate       *int64    `json:"bitrate,omitempty" db:"bitrate"`
	IsDefault     bool      `json:"is_default" db:"is_default"`
	IsForced      bool      `json:"is_forced" db:"is_forced"`
	Title         *string   `json:"title,omitempty" db:"title"`
}

// ──────────────────── User Settings ────────────────────

type AudioPreferences struct {
	RequireEnglishNonAnime        bool     `json:"require_english_non_anime"`
	RequireJapaneseAnime          bool     `json:"require_japanese_anime"`
	RequireDualAudioAnime         bool     `json:"require_dual_audio_anime"`
	CheckDefaultTrack             bool     `json:"check_default_track"`
	PreferredCodecs               []string `json:"preferred_codecs"`
	AutoFixEnglishDefaultNonAnime bool     `json:"auto_fix_english_default_non_anime"`
}

func DefaultAudioPreferences() AudioPreferences {
	return AudioPreferences{
		RequireEnglishNonAnime: true,
		RequireJapaneseAnime:   true,
		RequireDualAudioAnime:  true,
		CheckDefaultTrack:      true,
	}
}

type AnimeDetection struct {
	UsePlexGenres       bool     `json:"use_plex_genres"`
	AnimeFolderKeywords []string `json:"anime_folder_keywords"`
}

func DefaultAnimeDetection() AnimeDetection {
	return AnimeDetection{
		UsePlexGenres:       true,
		AnimeFolderKeywords: []string{"anime", "animation"},
	}
}

// UserSettings is the per-user configuration snapshot the scanner reads once
// at the start of a run and holds immutable for the run's duration.
type UserSettings struct {
	AudioPreferences AudioPreferences `json:"audio_preferences"`
	AnimeDetection   AnimeDetection   `json:"anime_detection"`
	FileExtensions   []string         `json:"file_extensions"`
}

func DefaultUserSettings() UserSettings {
	return UserSettings{
		AudioPreferences: DefaultAudioPreferences(),
		AnimeDetection:   DefaultAnimeDetection(),
		FileExtensions:   []string{".mkv", ".mp4", ".avi", ".m4v"},
	}
}

// ──────────────────── Scan Status ────────────────────

type ScanState string

const (
	ScanStateIdle      ScanState = "idle"
	ScanStateRunning   ScanState = "running"
	ScanStateCompleted ScanState = "completed"
	ScanStateCancelled ScanState = "cancelled"
	ScanStateFailed    ScanState = "failed"
)

// ScanStatus is process-wide, not persisted. Reset at scan start, mutated
// during the walk, frozen at completion until the next run starts.
type ScanStatus struct {
	IsRunning       bool       `json:"is_running"`
	State           ScanState  `json:"state"`
	CurrentLocation *string    `json:"current_location,omitempty"`
	FilesScanned    int        `json:"files_scanned"`
	FilesTotal      int        `json:"files_total"`
	CurrentFile     *string    `json:"current_file,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	Errors          []string   `json:"errors"`
}

// ──────────────────── Dashboard ────────────────────

type DashboardStats struct {
	TotalShows            int        `json:"total_shows"`
	TotalEpisodes         int        `json:"total_episodes"`
	TotalFiles            int        `json:"total_files"`
	FilesWithIssues       int        `json:"total_files_with_issues"`
	AnimeCount            int        `json:"anime_count"`
	NonAnimeCount         int        `json:"non_anime_count"`
	MissingEnglishCount   int        `json:"missing_english_count"`
	MissingJapaneseCount  int        `json:"missing_japanese_count"`
	MissingDualAudioCount int        `json:"missing_dual_audio_count"`
	LastScan              *time.Time `json:"last_scan,omitempty"`
}
