package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/TrackHound/internal/mediainfo"
	"github.com/JustinTDCT/TrackHound/internal/models"
	"github.com/JustinTDCT/TrackHound/internal/plex"
)

// ──────────────────── fakes ────────────────────

type fakeLocations struct {
	mu    sync.Mutex
	locs  []*models.ScanLocation
	stats map[uuid.UUID]int
}

func (f *fakeLocations) ListEnabled(userID uuid.UUID) ([]*models.ScanLocation, error) {
	var out []*models.ScanLocation
	for _, loc := range f.locs {
		if loc.UserID == userID && loc.Enabled {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (f *fakeLocations) GetByIDs(userID uuid.UUID, ids []uuid.UUID) ([]*models.ScanLocation, error) {
	var out []*models.ScanLocation
	for _, loc := range f.locs {
		for _, id := range ids {
			if loc.UserID == userID && loc.ID == id {
				out = append(out, loc)
			}
		}
	}
	return out, nil
}

func (f *fakeLocations) UpdateScanStats(id uuid.UUID, lastScanned time.Time, fileCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stats == nil {
		f.stats = make(map[uuid.UUID]int)
	}
	f.stats[id] = fileCount
	return nil
}

type fakeShows struct {
	mu         sync.Mutex
	shows      map[uuid.UUID]*models.Show
	seasons    map[uuid.UUID]*models.Season
	recomputed map[uuid.UUID]int
	pruned     map[uuid.UUID]int
}

func newFakeShows() *fakeShows {
	return &fakeShows{
		shows:      make(map[uuid.UUID]*models.Show),
		seasons:    make(map[uuid.UUID]*models.Season),
		recomputed: make(map[uuid.UUID]int),
		pruned:     make(map[uuid.UUID]int),
	}
}

func (f *fakeShows) GetByID(id uuid.UUID) (*models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if show, ok := f.shows[id]; ok {
		copied := *show
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeShows) FindByTitle(userID uuid.UUID, title string, mediaType models.MediaType) (*models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, show := range f.shows {
		if show.UserID == userID && strings.EqualFold(show.Title, title) && show.MediaType == mediaType {
			copied := *show
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeShows) Create(show *models.Show) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *show
	f.shows[show.ID] = &copied
	return nil
}

func (f *fakeShows) Update(show *models.Show) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *show
	f.shows[show.ID] = &copied
	return nil
}

func (f *fakeShows) FindSeason(showID uuid.UUID, seasonNumber int) (*models.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, season := range f.seasons {
		if season.ShowID == showID && season.SeasonNumber == seasonNumber {
			copied := *season
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeShows) CreateSeason(season *models.Season) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *season
	f.seasons[season.ID] = &copied
	return nil
}

func (f *fakeShows) RecomputeCounts(showID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputed[showID]++
	return nil
}

func (f *fakeShows) PruneEmpty(showID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned[showID]++
	return false, nil
}

type fakeFiles struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*models.MediaFile
	tracks map[uuid.UUID][]models.AudioTrack
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		byID:   make(map[uuid.UUID]*models.MediaFile),
		tracks: make(map[uuid.UUID][]models.AudioTrack),
	}
}

func (f *fakeFiles) GetByID(id uuid.UUID) (*models.MediaFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.byID[id]; ok {
		copied := *file
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeFiles) GetByPath(userID uuid.UUID, path string) (*models.MediaFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.byID {
		if file.UserID == userID && file.FilePath == path {
			copied := *file
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeFiles) ListByPathPrefix(userID uuid.UUID, prefix string) ([]*models.MediaFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MediaFile
	for _, file := range f.byID {
		if file.UserID == userID && strings.HasPrefix(file.FilePath, prefix) {
			copied := *file
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeFiles) CountByPathPrefix(userID uuid.UUID, prefix string) (int, error) {
	files, _ := f.ListByPathPrefix(userID, prefix)
	return len(files), nil
}

func (f *fakeFiles) Upsert(file *models.MediaFile, tracks []models.AudioTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.byID {
		if existing.UserID == file.UserID && existing.FilePath == file.FilePath && id != file.ID {
			return errors.New("duplicate file path")
		}
	}
	copied := *file
	f.byID[file.ID] = &copied
	f.tracks[file.ID] = append([]models.AudioTrack(nil), tracks...)
	return nil
}

func (f *fakeFiles) TracksForFile(id uuid.UUID) ([]models.AudioTrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AudioTrack(nil), f.tracks[id]...), nil
}

func (f *fakeFiles) Delete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	delete(f.tracks, id)
	return nil
}

func (f *fakeFiles) all() []*models.MediaFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MediaFile
	for _, file := range f.byID {
		copied := *file
		out = append(out, &copied)
	}
	return out
}

type fakeSettings struct {
	settings models.UserSettings
}

func (f *fakeSettings) Snapshot(userID uuid.UUID) (models.UserSettings, error) {
	return f.settings, nil
}

type fakeProber struct {
	mu      sync.Mutex
	results map[string]*mediainfo.Result
	errs    map[string]error
	calls   map[string]int
	onProbe func(path string)
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		results: make(map[string]*mediainfo.Result),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeProber) Probe(path string) (*mediainfo.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	if f.onProbe != nil {
		f.onProbe(path)
	}
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	if result, ok := f.results[path]; ok {
		copied := *result
		copied.Tracks = append([]mediainfo.Track(nil), result.Tracks...)
		return &copied, nil
	}
	return &mediainfo.Result{}, nil
}

func (f *fakeProber) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

type fakePropEdit struct {
	mu        sync.Mutex
	languages []string
	onSet     func(path string)
	err       error
}

func (f *fakePropEdit) SetDefaultByLanguage(path string, tracks []models.AudioTrack, language string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.languages = append(f.languages, language)
	if f.onSet != nil {
		f.onSet(path)
	}
	return nil
}

type fakeGenreSource struct {
	shows map[string]*plex.Show
}

func (f *fakeGenreSource) FindShow(title string) (*plex.Show, error) {
	if show, ok := f.shows[strings.ToLower(title)]; ok {
		return show, nil
	}
	return nil, nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEnqueuer) EnqueueScan(userID uuid.UUID, locationIDs []uuid.UUID, incremental bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

// ──────────────────── helpers ────────────────────

func strPtr(s string) *string { return &s }

func probeResult(tracks ...mediainfo.Track) *mediainfo.Result {
	container := "Matroska"
	duration := int64(1_200_000)
	return &mediainfo.Result{Container: &container, DurationMS: &duration, Tracks: tracks}
}

func audioTrack(index int, lang string, isDefault bool) mediainfo.Track {
	t := mediainfo.Track{TrackIndex: index, IsDefault: isDefault, Codec: strPtr("aac")}
	if lang != "" {
		t.Language = &lang
	}
	return t
}

func writeMedia(t *testing.T, root string, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

type testEnv struct {
	scanner   *Scanner
	locations *fakeLocations
	shows     *fakeShows
	files     *fakeFiles
	prober    *fakeProber
	propedit  *fakePropEdit
	settings  *fakeSettings
	userID    uuid.UUID
}

func newTestEnv(t *testing.T, locs ...*models.ScanLocation) *testEnv {
	t.Helper()
	env := &testEnv{
		locations: &fakeLocations{locs: locs},
		shows:     newFakeShows(),
		files:     newFakeFiles(),
		prober:    newFakeProber(),
		propedit:  &fakePropEdit{},
		settings:  &fakeSettings{settings: models.DefaultUserSettings()},
		userID:    uuid.New(),
	}
	for _, loc := range locs {
		loc.UserID = env.userID
	}
	env.scanner = NewScanner(
		env.locations, env.shows, env.files, env.settings,
		env.prober, env.propedit, nil, NewStatusTracker(), 2)
	return env
}

func tvLocation(path string) *models.ScanLocation {
	return &models.ScanLocation{
		ID:        uuid.New(),
		Path:      path,
		Label:     "TV",
		MediaType: models.MediaTypeTV,
		Enabled:   true,
	}
}

func (e *testEnv) run(t *testing.T, incremental bool) {
	t.Helper()
	require.NoError(t, e.scanner.Run(RunOptions{UserID: e.userID, Incremental: incremental}, nil))
}

// ──────────────────── tests ────────────────────

func TestRunCatalogsEpisode(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "Breaking Bad/Season 1/Breaking Bad - S01E02 - Cat's in the Bag.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[path] = probeResult(audioTrack(0, "en", true))

	env.run(t, true)

	files := env.files.all()
	require.Len(t, files, 1)
	file := files[0]
	assert.Equal(t, path, file.FilePath)
	assert.False(t, file.HasIssues)
	assert.Nil(t, file.IssueDetails)
	require.NotNil(t, file.EpisodeNumber)
	assert.Equal(t, 2, *file.EpisodeNumber)
	require.NotNil(t, file.ShowID)
	require.NotNil(t, file.SeasonID)

	show, err := env.shows.GetByID(*file.ShowID)
	require.NoError(t, err)
	require.NotNil(t, show)
	assert.Equal(t, "Breaking Bad", show.Title)
	assert.False(t, show.IsAnime)

	tracks, err := env.files.TracksForFile(file.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, file.ID, tracks[0].MediaFileID)

	assert.Equal(t, 1, env.shows.recomputed[show.ID])
	assert.Equal(t, 1, env.locations.stats[env.locations.locs[0].ID])

	snap := env.scanner.Status().Snapshot()
	assert.Equal(t, models.ScanStateCompleted, snap.State)
	assert.Equal(t, 1, snap.FilesScanned)
	assert.Empty(t, snap.Errors)
}

func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[path] = probeResult(audioTrack(0, "en", true))

	env.run(t, false)
	env.run(t, false)

	assert.Len(t, env.files.all(), 1)
	assert.Len(t, env.shows.shows, 1)
	assert.Len(t, env.shows.seasons, 1)
	// Full mode re-extracts every file
	assert.Equal(t, 2, env.prober.callCount(path))
}

func TestRunIncrementalSkipsUnchanged(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[path] = probeResult(audioTrack(0, "en", true))

	env.run(t, true)
	env.run(t, true)
	assert.Equal(t, 1, env.prober.callCount(path))

	// Touching the file invalidates the skip
	newMtime := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, newMtime, newMtime))
	env.run(t, true)
	assert.Equal(t, 2, env.prober.callCount(path))
}

func TestRunTombstonesMissingFiles(t *testing.T) {
	root := t.TempDir()
	keep := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")
	gone := writeMedia(t, root, "Show/Season 1/Show - S01E02.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[keep] = probeResult(audioTrack(0, "en", true))
	env.prober.results[gone] = probeResult(audioTrack(0, "en", true))

	env.run(t, true)
	require.Len(t, env.files.all(), 2)

	require.NoError(t, os.Remove(gone))
	env.run(t, true)

	files := env.files.all()
	require.Len(t, files, 1)
	assert.Equal(t, keep, files[0].FilePath)
	assert.Equal(t, 1, env.locations.stats[env.locations.locs[0].ID])
}

func TestRunCancelledSkipsTombstoning(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))

	// A record whose file no longer exists on disk
	stale := &models.MediaFile{
		ID:       uuid.New(),
		UserID:   env.userID,
		FilePath: filepath.Join(root, "Show", "Season 1", "gone.mkv"),
		Filename: "gone.mkv",
	}
	require.NoError(t, env.files.Upsert(stale, nil))

	tracker := env.scanner.Status()
	require.NoError(t, tracker.Begin())
	require.NoError(t, tracker.RequestCancel())

	require.NoError(t, env.scanner.Run(RunOptions{UserID: env.userID, Incremental: true}, nil))

	snap := tracker.Snapshot()
	assert.Equal(t, models.ScanStateCancelled, snap.State)
	assert.Equal(t, 0, snap.FilesScanned)

	// Stale record survives the cancelled run
	kept, err := env.files.GetByID(stale.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestRunCancelMidRunCommitsOnlyDispatched(t *testing.T) {
	root := t.TempDir()
	first := writeMedia(t, root, "Severance/Season 1/Severance - S01E01.mkv")
	second := writeMedia(t, root, "Severance/Season 1/Severance - S01E02.mkv")
	third := writeMedia(t, root, "Severance/Season 1/Severance - S01E03.mkv")

	env := newTestEnv(t, tvLocation(root))
	// One worker keeps dispatch strictly sequential: a cancel raised while
	// the first file is in flight is seen before the second is dispatched.
	env.scanner.workers = 1
	for _, p := range []string{first, second, third} {
		env.prober.results[p] = probeResult(audioTrack(0, "en", true))
	}

	// A record whose file no longer exists; a completed run would remove it.
	stale := &models.MediaFile{
		ID:       uuid.New(),
		UserID:   env.userID,
		FilePath: filepath.Join(root, "Severance", "Season 1", "gone.mkv"),
		Filename: "gone.mkv",
	}
	require.NoError(t, env.files.Upsert(stale, nil))

	env.prober.onProbe = func(path string) {
		if path == first {
			_ = env.scanner.CancelScan()
		}
	}

	env.run(t, true)

	snap := env.scanner.Status().Snapshot()
	assert.Equal(t, models.ScanStateCancelled, snap.State)
	assert.Equal(t, 1, snap.FilesScanned)

	paths := make(map[string]bool)
	for _, f := range env.files.all() {
		paths[f.FilePath] = true
	}
	assert.True(t, paths[first], "in-flight file commits before the run stops")
	assert.False(t, paths[second], "undispatched file must not be committed")
	assert.False(t, paths[third], "undispatched file must not be committed")
	assert.True(t, paths[stale.FilePath], "cancelled run must not tombstone")
	assert.Equal(t, 0, env.prober.callCount(second))
	assert.Equal(t, 0, env.prober.callCount(third))
}

func TestRunRecordsProbeFailures(t *testing.T) {
	root := t.TempDir()
	good := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")
	bad := writeMedia(t, root, "Show/Season 1/Show - S01E02.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[good] = probeResult(audioTrack(0, "en", true))
	env.prober.errs[bad] = errors.New("extraction failed: corrupt header")

	env.run(t, true)

	files := env.files.all()
	require.Len(t, files, 1)
	assert.Equal(t, good, files[0].FilePath)

	snap := env.scanner.Status().Snapshot()
	assert.Equal(t, models.ScanStateCompleted, snap.State)
	require.Len(t, snap.Errors, 1)
	assert.Contains(t, snap.Errors[0], "corrupt header")
}

func TestRunLocationUnavailable(t *testing.T) {
	root := t.TempDir()
	good := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")
	missing := filepath.Join(root, "does-not-exist")

	env := newTestEnv(t, tvLocation(root), tvLocation(missing))
	env.prober.results[good] = probeResult(audioTrack(0, "en", true))

	// A record under the unavailable root must not be tombstoned
	stale := &models.MediaFile{
		ID:       uuid.New(),
		UserID:   env.userID,
		FilePath: filepath.Join(missing, "old.mkv"),
		Filename: "old.mkv",
	}
	require.NoError(t, env.files.Upsert(stale, nil))

	env.run(t, true)

	snap := env.scanner.Status().Snapshot()
	assert.Equal(t, models.ScanStateCompleted, snap.State)
	require.NotEmpty(t, snap.Errors)
	assert.Contains(t, snap.Errors[0], "does-not-exist")

	kept, err := env.files.GetByID(stale.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
	assert.Len(t, env.files.all(), 2)
}

func TestRunManualOverrideSticky(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "Bluey/Season 1/Bluey - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[path] = probeResult(audioTrack(0, "en", true))

	manual := &models.Show{
		ID:          uuid.New(),
		UserID:      env.userID,
		Title:       "Bluey",
		MediaType:   models.MediaTypeTV,
		IsAnime:     true,
		AnimeSource: models.AnimeSourceManual,
	}
	require.NoError(t, env.shows.Create(manual))

	env.run(t, true)

	show, err := env.shows.GetByID(manual.ID)
	require.NoError(t, err)
	require.NotNil(t, show)
	assert.True(t, show.IsAnime)
	assert.Equal(t, models.AnimeSourceManual, show.AnimeSource)

	// File evaluated under anime rules because the show override wins
	files := env.files.all()
	require.Len(t, files, 1)
	assert.True(t, files[0].HasIssues)
	require.NotNil(t, files[0].IssueDetails)
	assert.Contains(t, *files[0].IssueDetails, "Missing Japanese audio track (anime)")
}

func TestRunPlexGenreDetection(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "frieren beyond journeys end/Season 1/frieren - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[path] = probeResult(
		audioTrack(0, "ja", true), audioTrack(1, "en", false))

	genres := &fakeGenreSource{shows: map[string]*plex.Show{
		"frieren beyond journeys end": {
			RatingKey: "4711",
			Title:     "Frieren: Beyond Journey's End",
			Genres:    []string{"Anime", "Fantasy"},
			IsAnime:   true,
		},
	}}
	env.scanner.plexFactory = func(token string) GenreSource { return genres }

	require.NoError(t, env.scanner.Run(RunOptions{
		UserID:      env.userID,
		Incremental: true,
		PlexToken:   "plex-token",
	}, nil))

	require.Len(t, env.shows.shows, 1)
	for _, show := range env.shows.shows {
		assert.Equal(t, "Frieren: Beyond Journey's End", show.Title)
		assert.True(t, show.IsAnime)
		assert.Equal(t, models.AnimeSourcePlexGenre, show.AnimeSource)
		require.NotNil(t, show.PlexRatingKey)
		assert.Equal(t, "4711", *show.PlexRatingKey)
	}

	// Dual audio with Japanese default: clean
	files := env.files.all()
	require.Len(t, files, 1)
	assert.False(t, files[0].HasIssues)
}

func TestRunAutoFixDefault(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.settings.settings.AudioPreferences.AutoFixEnglishDefaultNonAnime = true

	// Wrong default first; the propedit fake flips the probe result
	env.prober.results[path] = probeResult(
		audioTrack(0, "fr", true), audioTrack(1, "en", false))
	env.propedit.onSet = func(p string) {
		env.prober.mu.Lock()
		defer env.prober.mu.Unlock()
		env.prober.results[p] = probeResult(
			audioTrack(0, "fr", false), audioTrack(1, "en", true))
	}

	env.run(t, true)

	require.Equal(t, []string{"en"}, env.propedit.languages)
	assert.Equal(t, 2, env.prober.callCount(path))

	files := env.files.all()
	require.Len(t, files, 1)
	assert.False(t, files[0].HasIssues)
}

func TestRunAutoFixDisabledLeavesIssue(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[path] = probeResult(
		audioTrack(0, "fr", true), audioTrack(1, "en", false))

	env.run(t, true)

	assert.Empty(t, env.propedit.languages)
	files := env.files.all()
	require.Len(t, files, 1)
	assert.True(t, files[0].HasIssues)
	assert.Contains(t, *files[0].IssueDetails, "Default audio track is 'fr'")
}

func TestStartScanSingleRunLock(t *testing.T) {
	env := newTestEnv(t)
	enqueuer := &fakeEnqueuer{}
	env.scanner.SetEnqueuer(enqueuer)

	require.NoError(t, env.scanner.StartScan(env.userID, nil, true))
	assert.ErrorIs(t, env.scanner.StartScan(env.userID, nil, true), ErrScanAlreadyRunning)
	assert.Equal(t, 1, enqueuer.calls)

	env.scanner.Status().Finish(models.ScanStateCompleted)
	require.NoError(t, env.scanner.StartScan(env.userID, nil, true))
}

func TestStartScanEnqueueFailureReleasesLock(t *testing.T) {
	env := newTestEnv(t)
	enqueuer := &fakeEnqueuer{err: errors.New("redis down")}
	env.scanner.SetEnqueuer(enqueuer)

	err := env.scanner.StartScan(env.userID, nil, true)
	require.Error(t, err)
	assert.Equal(t, models.ScanStateFailed, env.scanner.Status().Snapshot().State)

	enqueuer.err = nil
	require.NoError(t, env.scanner.StartScan(env.userID, nil, true))
}

func TestSetDefaultAudioRescansFile(t *testing.T) {
	root := t.TempDir()
	path := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	file := &models.MediaFile{
		ID:       uuid.New(),
		UserID:   env.userID,
		FilePath: path,
		Filename: filepath.Base(path),
	}
	require.NoError(t, env.files.Upsert(file, []models.AudioTrack{
		{TrackIndex: 0, Language: strPtr("fr"), IsDefault: true},
		{TrackIndex: 1, Language: strPtr("en")},
	}))
	env.prober.results[path] = probeResult(
		audioTrack(0, "fr", false), audioTrack(1, "en", true))

	require.NoError(t, env.scanner.SetDefaultAudio(env.userID, file.ID, "en"))
	assert.Equal(t, []string{"en"}, env.propedit.languages)

	refreshed, err := env.files.GetByID(file.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.False(t, refreshed.HasIssues)

	tracks, err := env.files.TracksForFile(file.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.True(t, tracks[1].IsDefault)
}

func TestRemoveLocationFiles(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "tv")
	path := writeMedia(t, root, "Show/Season 1/Show - S01E01.mkv")
	// Sibling root sharing a name prefix with the deleted location
	other := writeMedia(t, filepath.Join(base, "tv2"), "Other/Other - S01E01.mkv")

	env := newTestEnv(t, tvLocation(root))
	env.prober.results[path] = probeResult(audioTrack(0, "en", true))
	env.run(t, true)
	require.Len(t, env.files.all(), 1)

	// A record under a sibling root with a shared name prefix must survive
	outside := &models.MediaFile{
		ID:       uuid.New(),
		UserID:   env.userID,
		FilePath: other,
		Filename: filepath.Base(other),
	}
	require.NoError(t, env.files.Upsert(outside, nil))

	require.NoError(t, env.scanner.RemoveLocationFiles(env.userID, root))

	files := env.files.all()
	require.Len(t, files, 1)
	assert.Equal(t, other, files[0].FilePath)
	for id := range env.shows.shows {
		assert.GreaterOrEqual(t, env.shows.pruned[id], 1)
	}
}

func TestRescanFileUnknownID(t *testing.T) {
	env := newTestEnv(t)
	err := env.scanner.RescanFile(env.userID, uuid.New())
	assert.Error(t, err)
}
