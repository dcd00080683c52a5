package watcher

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

type fakeLocationSource struct {
	locs []*models.ScanLocation
}

func (f *fakeLocationSource) ListAllEnabled() ([]*models.ScanLocation, error) {
	return f.locs, nil
}

type fakeSettingsSource struct {
	settings map[uuid.UUID]models.UserSettings
}

func (f *fakeSettingsSource) Snapshot(userID uuid.UUID) (models.UserSettings, error) {
	if s, ok := f.settings[userID]; ok {
		return s, nil
	}
	return models.DefaultUserSettings(), nil
}

func TestRefreshLoadsConfiguredExtensions(t *testing.T) {
	userID := uuid.New()
	loc := &models.ScanLocation{
		ID:      uuid.New(),
		UserID:  userID,
		Path:    t.TempDir(),
		Enabled: true,
	}

	custom := models.DefaultUserSettings()
	custom.FileExtensions = []string{".mkv", "ogm"}

	w, err := New(
		&fakeLocationSource{locs: []*models.ScanLocation{loc}},
		&fakeSettingsSource{settings: map[uuid.UUID]models.UserSettings{userID: custom}},
		func(userID, locationID uuid.UUID) {},
	)
	require.NoError(t, err)
	defer w.Stop()

	w.Refresh()

	assert.True(t, w.allowedExt(userID, ".mkv"))
	assert.True(t, w.allowedExt(userID, ".ogm"), "bare extensions get a leading dot")
	assert.False(t, w.allowedExt(userID, ".wmv"), "unconfigured extension is ignored")
}

func TestAllowedExtFallsBackToDefaults(t *testing.T) {
	w, err := New(&fakeLocationSource{}, &fakeSettingsSource{}, func(userID, locationID uuid.UUID) {})
	require.NoError(t, err)
	defer w.Stop()

	unknown := uuid.New()
	assert.True(t, w.allowedExt(unknown, ".mkv"))
	assert.False(t, w.allowedExt(unknown, ".txt"))
}
