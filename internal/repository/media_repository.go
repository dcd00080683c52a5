package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

const fileColumns = `id, user_id, show_id, season_id, file_path, filename,
	episode_number, episode_title, file_size, container_format, duration_ms,
	last_scanned, last_modified, has_issues, issue_details`

func scanMediaFile(row interface{ Scan(dest ...interface{}) error }) (*models.MediaFile, error) {
	file := &models.MediaFile{}
	err := row.Scan(
		&file.ID, &file.UserID, &file.ShowID, &file.SeasonID, &file.FilePath,
		&file.Filename, &file.EpisodeNumber, &file.EpisodeTitle, &file.FileSize,
		&file.ContainerFormat, &file.DurationMS, &file.LastScanned,
		&file.LastModified, &file.HasIssues, &file.IssueDetails,
	)
	return file, err
}

const trackColumns = `id, media_file_id, track_index, language, language_raw,
	codec, channels, channel_layout, bitrate, is_default, is_forced, title`

func scanAudioTrack(row interface{ Scan(dest ...interface{}) error }) (models.AudioTrack, error) {
	track := models.AudioTrack{}
	err := row.Scan(
		&track.ID, &track.MediaFileID, &track.TrackIndex, &track.Language,
		&track.LanguageRaw, &track.Codec, &track.Channels, &track.ChannelLayout,
		&track.Bitrate, &track.IsDefault, &track.IsForced, &track.Title,
	)
	return track, err
}

func (r *MediaRepository) GetByID(id uuid.UUID) (*models.MediaFile, error) {
	query := `SELECT ` + fileColumns + ` FROM media_files WHERE id = $1`
	file, err := scanMediaFile(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return file, err
}

func (r *MediaRepository) GetByPath(userID uuid.UUID, path string) (*models.MediaFile, error) {
	query := `SELECT ` + fileColumns + ` FROM media_files
		WHERE user_id = $1 AND file_path = $2`
	file, err := scanMediaFile(r.db.QueryRow(query, userID, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return file, err
}

// likeEscape neutralizes LIKE metacharacters in a literal path prefix.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *MediaRepository) ListByPathPrefix(userID uuid.UUID, prefix string) ([]*models.MediaFile, error) {
	query := `SELECT ` + fileColumns + ` FROM media_files
		WHERE user_id = $1 AND file_path LIKE $2 ESCAPE '\'
		ORDER BY file_path`
	return r.queryFiles(query, userID, likeEscape(prefix)+"%")
}

func (r *MediaRepository) CountByPathPrefix(userID uuid.UUID, prefix string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM media_files
		 WHERE user_id = $1 AND file_path LIKE $2 ESCAPE '\'`,
		userID, likeEscape(prefix)+"%",
	).Scan(&count)
	return count, err
}

// Upsert writes the file row and replaces its audio tracks in one
// transaction, keyed on (user_id, file_path) so re-scans are idempotent.
func (r *MediaRepository) Upsert(file *models.MediaFile, tracks []models.AudioTrack) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO media_files (id, user_id, show_id, season_id, file_path,
			filename, episode_number, episode_title, file_size, container_format,
			duration_ms, last_scanned, last_modified, has_issues, issue_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, file_path) DO UPDATE SET
			show_id = EXCLUDED.show_id,
			season_id = EXCLUDED.season_id,
			filename = EXCLUDED.filename,
			episode_number = EXCLUDED.episode_number,
			episode_title = EXCLUDED.episode_title,
			file_size = EXCLUDED.file_size,
			container_format = EXCLUDED.container_format,
			duration_ms = EXCLUDED.duration_ms,
			last_scanned = EXCLUDED.last_scanned,
			last_modified = EXCLUDED.last_modified,
			has_issues = EXCLUDED.has_issues,
			issue_details = EXCLUDED.issue_details
		RETURNING id`,
		file.ID, file.UserID, file.ShowID, file.SeasonID, file.FilePath,
		file.Filename, file.EpisodeNumber, file.EpisodeTitle, file.FileSize,
		file.ContainerFormat, file.DurationMS, file.LastScanned,
		file.LastModified, file.HasIssues, file.IssueDetails,
	).Scan(&file.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM audio_tracks WHERE media_file_id = $1`, file.ID); err != nil {
		return err
	}
	for i := range tracks {
		t := &tracks[i]
		t.MediaFileID = file.ID
		_, err := tx.Exec(`
			INSERT INTO audio_tracks (id, media_file_id, track_index, language,
				language_raw, codec, channels, channel_layout, bitrate,
				is_default, is_forced, title)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			t.ID, t.MediaFileID, t.TrackIndex, t.Language, t.LanguageRaw,
			t.Codec, t.Channels, t.ChannelLayout, t.Bitrate,
			t.IsDefault, t.IsForced, t.Title,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *MediaRepository) TracksForFile(id uuid.UUID) ([]models.AudioTrack, error) {
	rows, err := r.db.Query(
		`SELECT `+trackColumns+` FROM audio_tracks
		 WHERE media_file_id = $1 ORDER BY track_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []models.AudioTrack
	for rows.Next() {
		track, err := scanAudioTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

func (r *MediaRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM media_files WHERE id = $1`, id)
	return err
}

// ──────────────────── Listing ────────────────────

type FileFilter struct {
	ShowID    *uuid.UUID
	SeasonID  *uuid.UUID
	HasIssues bool
	Search    string
	Limit     int
	Offset    int
}

func (r *MediaRepository) List(userID uuid.UUID, filter FileFilter) ([]*models.MediaFile, int, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.ShowID != nil {
		args = append(args, *filter.ShowID)
		where += fmt.Sprintf(` AND show_id = $%d`, len(args))
	}
	if filter.SeasonID != nil {
		args = append(args, *filter.SeasonID)
		where += fmt.Sprintf(` AND season_id = $%d`, len(args))
	}
	if filter.HasIssues {
		where += ` AND has_issues`
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND filename ILIKE $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM media_files `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT `+fileColumns+` FROM media_files %s
		ORDER BY file_path LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	files, err := r.queryFiles(query, args...)
	return files, total, err
}

func (r *MediaRepository) ListBySeason(seasonID uuid.UUID) ([]*models.MediaFile, error) {
	query := `SELECT ` + fileColumns + ` FROM media_files
		WHERE season_id = $1 ORDER BY episode_number NULLS LAST, file_path`
	return r.queryFiles(query, seasonID)
}

func (r *MediaRepository) queryFiles(query string, args ...interface{}) ([]*models.MediaFile, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.MediaFile
	for rows.Next() {
		file, err := scanMediaFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ──────────────────── Dashboard / Export ────────────────────

func (r *MediaRepository) Stats(userID uuid.UUID) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	err := r.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM shows WHERE user_id = $1),
			(SELECT COALESCE(SUM(episode_count), 0) FROM shows WHERE user_id = $1),
			(SELECT COUNT(*) FROM media_files WHERE user_id = $1),
			(SELECT COUNT(*) FROM media_files WHERE user_id = $1 AND has_issues),
			(SELECT COUNT(*) FROM shows WHERE user_id = $1 AND is_anime),
			(SELECT COUNT(*) FROM shows WHERE user_id = $1 AND NOT is_anime),
			(SELECT COUNT(*) FROM media_files WHERE user_id = $1
				AND issue_details LIKE '%Missing English audio track%'),
			(SELECT COUNT(*) FROM media_files WHERE user_id = $1
				AND issue_details LIKE '%Missing Japanese audio track%'),
			(SELECT COUNT(*) FROM media_files WHERE user_id = $1
				AND issue_details LIKE '%dual audio%'),
			(SELECT MAX(last_scanned) FROM scan_locations WHERE user_id = $1)`,
		userID,
	).Scan(
		&stats.TotalShows, &stats.TotalEpisodes, &stats.TotalFiles,
		&stats.FilesWithIssues, &stats.AnimeCount, &stats.NonAnimeCount,
		&stats.MissingEnglishCount, &stats.MissingJapaneseCount,
		&stats.MissingDualAudioCount, &stats.LastScan,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// IssueRow is one line of the issue-report export.
type IssueRow struct {
	ShowTitle      *string
	SeasonNumber   *int
	EpisodeNumber  *int
	Filename       string
	FilePath       string
	IssueDetails   *string
	AudioLanguages *string
	AudioCodecs    *string
}

// ListIssueRows returns every flagged file joined with its show and an
// aggregated track summary, ordered for the CSV export.
func (r *MediaRepository) ListIssueRows(userID uuid.UUID) ([]IssueRow, error) {
	rows, err := r.db.Query(`
		SELECT sh.title, se.season_number, f.episode_number, f.filename,
			f.file_path, f.issue_details,
			(SELECT STRING_AGG(COALESCE(t.language, '?'), '/' ORDER BY t.track_index)
				FROM audio_tracks t WHERE t.media_file_id = f.id),
			(SELECT STRING_AGG(COALESCE(t.codec, '?'), '/' ORDER BY t.track_index)
				FROM audio_tracks t WHERE t.media_file_id = f.id)
		FROM media_files f
		LEFT JOIN shows sh ON sh.id = f.show_id
		LEFT JOIN seasons se ON se.id = f.season_id
		WHERE f.user_id = $1 AND f.has_issues
		ORDER BY sh.title NULLS LAST, se.season_number, f.episode_number, f.file_path`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []IssueRow
	for rows.Next() {
		var row IssueRow
		err := rows.Scan(
			&row.ShowTitle, &row.SeasonNumber, &row.EpisodeNumber,
			&row.Filename, &row.FilePath, &row.IssueDetails,
			&row.AudioLanguages, &row.AudioCodecs,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
