package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

type LocationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

const locationColumns = `id, user_id, path, label, media_type, enabled,
	last_scanned, file_count, created_at`

func scanLocation(row interface{ Scan(dest ...interface{}) error }) (*models.ScanLocation, error) {
	loc := &models.ScanLocation{}
	err := row.Scan(
		&loc.ID, &loc.UserID, &loc.Path, &loc.Label, &loc.MediaType,
		&loc.Enabled, &loc.LastScanned, &loc.FileCount, &loc.CreatedAt,
	)
	return loc, err
}

func (r *LocationRepository) ListByUser(userID uuid.UUID) ([]*models.ScanLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM scan_locations
		WHERE user_id = $1 ORDER BY created_at`
	return r.queryLocations(query, userID)
}

func (r *LocationRepository) ListEnabled(userID uuid.UUID) ([]*models.ScanLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM scan_locations
		WHERE user_id = $1 AND enabled ORDER BY created_at`
	return r.queryLocations(query, userID)
}

// ListAllEnabled returns enabled locations across every user, for the
// filesystem watcher.
func (r *LocationRepository) ListAllEnabled() ([]*models.ScanLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM scan_locations
		WHERE enabled ORDER BY created_at`
	return r.queryLocations(query)
}

func (r *LocationRepository) GetByID(userID, id uuid.UUID) (*models.ScanLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM scan_locations
		WHERE user_id = $1 AND id = $2`
	loc, err := scanLocation(r.db.QueryRow(query, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return loc, err
}

func (r *LocationRepository) GetByIDs(userID uuid.UUID, ids []uuid.UUID) ([]*models.ScanLocation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `SELECT ` + locationColumns + ` FROM scan_locations
		WHERE user_id = $1 AND id = ANY($2) ORDER BY created_at`
	return r.queryLocations(query, userID, pq.Array(raw))
}

func (r *LocationRepository) GetByPath(userID uuid.UUID, path string) (*models.ScanLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM scan_locations
		WHERE user_id = $1 AND path = $2`
	loc, err := scanLocation(r.db.QueryRow(query, userID, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return loc, err
}

func (r *LocationRepository) Create(loc *models.ScanLocation) error {
	query := `
		INSERT INTO scan_locations (id, user_id, path, label, media_type, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.db.QueryRow(query,
		loc.ID, loc.UserID, loc.Path, loc.Label, loc.MediaType, loc.Enabled,
	).Scan(&loc.CreatedAt)
}

func (r *LocationRepository) Update(loc *models.ScanLocation) error {
	query := `
		UPDATE scan_locations
		SET path = $3, label = $4, media_type = $5, enabled = $6
		WHERE user_id = $1 AND id = $2`
	_, err := r.db.Exec(query,
		loc.UserID, loc.ID, loc.Path, loc.Label, loc.MediaType, loc.Enabled,
	)
	return err
}

func (r *LocationRepository) Delete(userID, id uuid.UUID) error {
	_, err := r.db.Exec(
		`DELETE FROM scan_locations WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}

func (r *LocationRepository) UpdateScanStats(id uuid.UUID, lastScanned time.Time, fileCount int) error {
	_, err := r.db.Exec(
		`UPDATE scan_locations SET last_scanned = $2, file_count = $3 WHERE id = $1`,
		id, lastScanned, fileCount)
	return err
}

func (r *LocationRepository) queryLocations(query string, args ...interface{}) ([]*models.ScanLocation, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*models.ScanLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}
