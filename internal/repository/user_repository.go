package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, plex_user_id, plex_username, plex_email, plex_token,
	plex_thumb_url, created_at, last_login`

func scanUser(row interface{ Scan(dest ...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.PlexUserID, &user.PlexUsername, &user.PlexEmail,
		&user.PlexToken, &user.PlexThumbURL, &user.CreatedAt, &user.LastLogin,
	)
	return user, err
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) GetByPlexUserID(plexUserID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE plex_user_id = $1`
	user, err := scanUser(r.db.QueryRow(query, plexUserID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, plex_user_id, plex_username, plex_email,
			plex_token, plex_thumb_url, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(query,
		user.ID, user.PlexUserID, user.PlexUsername, user.PlexEmail,
		user.PlexToken, user.PlexThumbURL, user.CreatedAt, user.LastLogin,
	)
	return err
}

func (r *UserRepository) Update(user *models.User) error {
	query := `
		UPDATE users
		SET plex_username = $2, plex_email = $3, plex_token = $4,
		    plex_thumb_url = $5, last_login = $6
		WHERE id = $1`
	_, err := r.db.Exec(query,
		user.ID, user.PlexUsername, user.PlexEmail, user.PlexToken,
		user.PlexThumbURL, user.LastLogin,
	)
	return err
}

// ListIDs returns every user ID, used by the scan scheduler.
func (r *UserRepository) ListIDs() ([]uuid.UUID, error) {
	rows, err := r.db.Query(`SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
