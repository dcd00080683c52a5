package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

type ShowRepository struct {
	db *sql.DB
}

func NewShowRepository(db *sql.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

const showColumns = `id, user_id, title, media_type, is_anime, anime_source,
	plex_rating_key, thumb_url, season_count, episode_count, file_count,
	issues_count, created_at, updated_at`

func scanShow(row interface{ Scan(dest ...interface{}) error }) (*models.Show, error) {
	show := &models.Show{}
	err := row.Scan(
		&show.ID, &show.UserID, &show.Title, &show.MediaType, &show.IsAnime,
		&show.AnimeSource, &show.PlexRatingKey, &show.ThumbURL,
		&show.SeasonCount, &show.EpisodeCount, &show.FileCount,
		&show.IssuesCount, &show.CreatedAt, &show.UpdatedAt,
	)
	return show, err
}

func (r *ShowRepository) GetByID(id uuid.UUID) (*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1`
	show, err := scanShow(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return show, err
}

func (r *ShowRepository) FindByTitle(userID uuid.UUID, title string, mediaType models.MediaType) (*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows
		WHERE user_id = $1 AND LOWER(title) = LOWER($2) AND media_type = $3`
	show, err := scanShow(r.db.QueryRow(query, userID, title, mediaType))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return show, err
}

func (r *ShowRepository) Create(show *models.Show) error {
	query := `
		INSERT INTO shows (id, user_id, title, media_type, is_anime,
			anime_source, plex_rating_key, thumb_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	return r.db.QueryRow(query,
		show.ID, show.UserID, show.Title, show.MediaType, show.IsAnime,
		show.AnimeSource, show.PlexRatingKey, show.ThumbURL,
	).Scan(&show.CreatedAt, &show.UpdatedAt)
}

func (r *ShowRepository) Update(show *models.Show) error {
	query := `
		UPDATE shows
		SET title = $2, is_anime = $3, anime_source = $4,
		    plex_rating_key = $5, thumb_url = $6, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.Exec(query,
		show.ID, show.Title, show.IsAnime, show.AnimeSource,
		show.PlexRatingKey, show.ThumbURL,
	)
	return err
}

// ──────────────────── Seasons ────────────────────

func (r *ShowRepository) FindSeason(showID uuid.UUID, seasonNumber int) (*models.Season, error) {
	season := &models.Season{}
	err := r.db.QueryRow(
		`SELECT id, show_id, season_number FROM seasons
		 WHERE show_id = $1 AND season_number = $2`,
		showID, seasonNumber,
	).Scan(&season.ID, &season.ShowID, &season.SeasonNumber)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return season, err
}

func (r *ShowRepository) CreateSeason(season *models.Season) error {
	_, err := r.db.Exec(
		`INSERT INTO seasons (id, show_id, season_number) VALUES ($1, $2, $3)`,
		season.ID, season.ShowID, season.SeasonNumber)
	return err
}

func (r *ShowRepository) ListSeasons(showID uuid.UUID) ([]*models.Season, error) {
	rows, err := r.db.Query(
		`SELECT id, show_id, season_number FROM seasons
		 WHERE show_id = $1 ORDER BY season_number`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []*models.Season
	for rows.Next() {
		season := &models.Season{}
		if err := rows.Scan(&season.ID, &season.ShowID, &season.SeasonNumber); err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// ──────────────────── Counters / Pruning ────────────────────

// RecomputeCounts rebuilds a show's denormalized counters from its files.
func (r *ShowRepository) RecomputeCounts(showID uuid.UUID) error {
	query := `
		UPDATE shows SET
			season_count = (
				SELECT COUNT(*) FROM seasons s
				WHERE s.show_id = $1
				  AND EXISTS (SELECT 1 FROM media_files f WHERE f.season_id = s.id)),
			episode_count = (
				SELECT COUNT(DISTINCT (f.season_id, f.episode_number)) FROM media_files f
				WHERE f.show_id = $1 AND f.episode_number IS NOT NULL),
			file_count = (
				SELECT COUNT(*) FROM media_files f WHERE f.show_id = $1),
			issues_count = (
				SELECT COUNT(*) FROM media_files f WHERE f.show_id = $1 AND f.has_issues),
			updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.Exec(query, showID)
	return err
}

// PruneEmpty drops seasons with no remaining files, then the show itself if
// its last file is gone. Returns true when the show was deleted.
func (r *ShowRepository) PruneEmpty(showID uuid.UUID) (bool, error) {
	_, err := r.db.Exec(`
		DELETE FROM seasons s
		WHERE s.show_id = $1
		  AND NOT EXISTS (SELECT 1 FROM media_files f WHERE f.season_id = s.id)`,
		showID)
	if err != nil {
		return false, err
	}

	result, err := r.db.Exec(`
		DELETE FROM shows
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM media_files f WHERE f.show_id = $1)`,
		showID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// ──────────────────── Listing ────────────────────

// ShowFilter narrows and pages the show list.
type ShowFilter struct {
	MediaType *models.MediaType
	IsAnime   *bool
	HasIssues bool
	Search    string
	Limit     int
	Offset    int
}

func (r *ShowRepository) List(userID uuid.UUID, filter ShowFilter) ([]*models.Show, int, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.MediaType != nil {
		args = append(args, *filter.MediaType)
		where += fmt.Sprintf(` AND media_type = $%d`, len(args))
	}
	if filter.IsAnime != nil {
		args = append(args, *filter.IsAnime)
		where += fmt.Sprintf(` AND is_anime = $%d`, len(args))
	}
	if filter.HasIssues {
		where += ` AND issues_count > 0`
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND title ILIKE $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM shows `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT `+showColumns+` FROM shows %s
		ORDER BY title LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var shows []*models.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, 0, err
		}
		shows = append(shows, show)
	}
	return shows, total, rows.Err()
}
