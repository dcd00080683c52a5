package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

// Settings live in a user_preferences key/value table with JSON values, so
// new preference groups never need a migration.
const (
	keyAudioPreferences = "audio_preferences"
	keyAnimeDetection   = "anime_detection"
	keyFileExtensions   = "file_extensions"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Snapshot assembles the full settings struct, falling back to defaults for
// any key the user has never written. Unreadable values log and fall back
// rather than failing the caller.
func (r *SettingsRepository) Snapshot(userID uuid.UUID) (models.UserSettings, error) {
	settings := models.DefaultUserSettings()

	rows, err := r.db.Query(
		`SELECT key, value FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return settings, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return settings, err
		}
		var dst interface{}
		switch key {
		case keyAudioPreferences:
			dst = &settings.AudioPreferences
		case keyAnimeDetection:
			dst = &settings.AnimeDetection
		case keyFileExtensions:
			dst = &settings.FileExtensions
		default:
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			log.Printf("Settings: ignoring malformed %s for user %s: %v", key, userID, err)
		}
	}
	return settings, rows.Err()
}

func (r *SettingsRepository) Save(userID uuid.UUID, settings models.UserSettings) error {
	if err := r.set(userID, keyAudioPreferences, settings.AudioPreferences); err != nil {
		return err
	}
	if err := r.set(userID, keyAnimeDetection, settings.AnimeDetection); err != nil {
		return err
	}
	return r.set(userID, keyFileExtensions, settings.FileExtensions)
}

func (r *SettingsRepository) set(userID uuid.UUID, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	_, err = r.db.Exec(`
		INSERT INTO user_preferences (id, user_id, key, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		uuid.New(), userID, key, raw)
	return err
}
