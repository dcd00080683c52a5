package scanner

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/mediainfo"
	"github.com/JustinTDCT/TrackHound/internal/models"
	"github.com/JustinTDCT/TrackHound/internal/plex"
)

// ErrLocationUnavailable marks a scan location whose root is missing or
// unreadable. The location is skipped; other locations still process.
var ErrLocationUnavailable = errors.New("scan location unavailable")

// Prober extracts audio-track metadata from one file.
type Prober interface {
	Probe(path string) (*mediainfo.Result, error)
}

// DefaultTrackSetter rewrites a container's default-track flag in place.
type DefaultTrackSetter interface {
	SetDefaultByLanguage(path string, tracks []models.AudioTrack, language string) error
}

// GenreSource resolves a show title to Plex metadata for anime detection.
type GenreSource interface {
	FindShow(title string) (*plex.Show, error)
}

// Enqueuer hands a scan request to the background worker.
type Enqueuer interface {
	EnqueueScan(userID uuid.UUID, locationIDs []uuid.UUID, incremental bool) error
}

type SettingsStore interface {
	Snapshot(userID uuid.UUID) (models.UserSettings, error)
}

type LocationStore interface {
	ListEnabled(userID uuid.UUID) ([]*models.ScanLocation, error)
	GetByIDs(userID uuid.UUID, ids []uuid.UUID) ([]*models.ScanLocation, error)
	UpdateScanStats(id uuid.UUID, lastScanned time.Time, fileCount int) error
}

type ShowStore interface {
	GetByID(id uuid.UUID) (*models.Show, error)
	FindByTitle(userID uuid.UUID, title string, mediaType models.MediaType) (*models.Show, error)
	Create(show *models.Show) error
	Update(show *models.Show) error
	FindSeason(showID uuid.UUID, seasonNumber int) (*models.Season, error)
	CreateSeason(season *models.Season) error
	RecomputeCounts(showID uuid.UUID) error
	// PruneEmpty removes seasons with no files and the show itself when its
	// last file is gone. Returns true when the show was deleted.
	PruneEmpty(showID uuid.UUID) (bool, error)
}

type FileStore interface {
	GetByID(id uuid.UUID) (*models.MediaFile, error)
	GetByPath(userID uuid.UUID, path string) (*models.MediaFile, error)
	ListByPathPrefix(userID uuid.UUID, prefix string) ([]*models.MediaFile, error)
	CountByPathPrefix(userID uuid.UUID, prefix string) (int, error)
	// Upsert writes the file and replaces its audio tracks wholesale, as one
	// transaction.
	Upsert(file *models.MediaFile, tracks []models.AudioTrack) error
	TracksForFile(id uuid.UUID) ([]models.AudioTrack, error)
	Delete(id uuid.UUID) error
}

// ProgressFunc receives per-file progress during a run.
type ProgressFunc func(current, total int, filename string)

// RunOptions selects what a scan run covers.
type RunOptions struct {
	UserID      uuid.UUID
	LocationIDs []uuid.UUID // nil means all enabled locations
	Incremental bool
	PlexToken   string // decrypted, empty when Plex lookups are unavailable
}

// Scanner is the catalog reconciler: it walks scan locations, diffs
// discovered files against the persisted catalog, extracts and classifies,
// evaluates issues, and tombstones records for files gone from disk.
type Scanner struct {
	locations LocationStore
	shows     ShowStore
	files     FileStore
	settings  SettingsStore
	prober    Prober
	propedit  DefaultTrackSetter
	// plexFactory builds a per-run genre source from a user's token; nil when
	// no Plex server is configured.
	plexFactory func(token string) GenreSource
	tracker     *StatusTracker
	enqueuer    Enqueuer
	workers     int
}

func NewScanner(locations LocationStore, shows ShowStore, files FileStore,
	settings SettingsStore, prober Prober, propedit DefaultTrackSetter,
	plexFactory func(token string) GenreSource, tracker *StatusTracker, workers int,
) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		locations:   locations,
		shows:       shows,
		files:       files,
		settings:    settings,
		prober:      prober,
		propedit:    propedit,
		plexFactory: plexFactory,
		tracker:     tracker,
		workers:     workers,
	}
}

// SetEnqueuer is wired after construction because the job queue depends on
// the scanner for task execution.
func (s *Scanner) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

func (s *Scanner) Status() *StatusTracker {
	return s.tracker
}

// StartScan acquires the single-run lock and hands the run to the background
// worker. Fails fast with ErrScanAlreadyRunning when a run is active.
func (s *Scanner) StartScan(userID uuid.UUID, locationIDs []uuid.UUID, incremental bool) error {
	if err := s.tracker.Begin(); err != nil {
		return err
	}
	if s.enqueuer == nil {
		s.tracker.Finish(models.ScanStateFailed)
		return errors.New("no scan worker configured")
	}
	if err := s.enqueuer.EnqueueScan(userID, locationIDs, incremental); err != nil {
		s.tracker.AppendError(err.Error())
		s.tracker.Finish(models.ScanStateFailed)
		return fmt.Errorf("enqueue scan: %w", err)
	}
	return nil
}

// CancelScan requests cooperative cancellation of the active run.
func (s *Scanner) CancelScan() error {
	return s.tracker.RequestCancel()
}

// runState carries the immutable settings snapshot plus the shared mutable
// bits the file workers touch.
type runState struct {
	opts     RunOptions
	settings models.UserSettings
	genres   GenreSource

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	touched map[uuid.UUID]bool
}

// showLock serializes upserts and counter math for one show so siblings of
// the same show processed by concurrent workers cannot race.
func (r *runState) showLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

func (r *runState) touch(showID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[showID] = true
}

func (r *runState) touchedShows() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.touched))
	for id := range r.touched {
		ids = append(ids, id)
	}
	return ids
}

// Run executes one scan run. The run lock is taken by StartScan for
// interactive scans; Run adopts it for tasks enqueued directly (scheduled
// scans) and on a worker that restarted in between.
func (s *Scanner) Run(opts RunOptions, progress ProgressFunc) error {
	s.tracker.adopt()
	state := models.ScanStateCompleted
	defer func() {
		s.tracker.Finish(state)
	}()

	settings, err := s.settings.Snapshot(opts.UserID)
	if err != nil {
		state = models.ScanStateFailed
		s.tracker.AppendError(fmt.Sprintf("settings: %v", err))
		return fmt.Errorf("settings snapshot: %w", err)
	}

	locations, err := s.resolveLocations(opts)
	if err != nil {
		state = models.ScanStateFailed
		s.tracker.AppendError(err.Error())
		return err
	}

	extensions := extensionSet(settings.FileExtensions)

	// Discovery pass: enumerate every candidate file before processing so
	// progress totals are known up front.
	type candidate struct {
		path string
		loc  *models.ScanLocation
	}
	var all []candidate
	discovered := make(map[uuid.UUID]map[string]bool)
	for _, loc := range locations {
		s.tracker.SetLocation(loc.Path)
		paths, err := discoverFiles(loc.Path, extensions)
		if err != nil {
			log.Printf("Scan: skipping location %s: %v", loc.Path, err)
			s.tracker.AppendError(fmt.Sprintf("location %s: %v", loc.Path, err))
			continue
		}
		set := make(map[string]bool, len(paths))
		for _, p := range paths {
			set[p] = true
			all = append(all, candidate{path: p, loc: loc})
		}
		discovered[loc.ID] = set
	}
	s.tracker.SetTotal(len(all))

	run := &runState{
		opts:     opts,
		settings: settings,
		touched:  make(map[uuid.UUID]bool),
	}
	if settings.AnimeDetection.UsePlexGenres && opts.PlexToken != "" && s.plexFactory != nil {
		run.genres = s.plexFactory(opts.PlexToken)
	}

	// Processing pass: bounded worker pool. Cancellation is checked once a
	// worker slot is free, so a cancel raised mid-file stops dispatch at the
	// next boundary; in-flight extractions drain normally and no file is
	// ever half-written.
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	total := len(all)
	cancelled := false

	for _, c := range all {
		sem <- struct{}{}
		if s.tracker.Cancelled() {
			<-sem
			cancelled = true
			break
		}
		wg.Add(1)
		go func(c candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			s.processFile(run, c.loc, c.path)
			n := s.tracker.FileDone(filepath.Base(c.path))
			if progress != nil {
				progress(n, total, filepath.Base(c.path))
			}
		}(c)
	}
	wg.Wait()

	// Tombstoning pass: catalog records under a walked location whose path
	// was not discovered no longer exist on disk. Skipped entirely on
	// cancellation; a cancelled run commits exactly the files processed.
	if !cancelled {
		for _, loc := range locations {
			set, walked := discovered[loc.ID]
			if !walked {
				continue
			}
			known, err := s.files.ListByPathPrefix(opts.UserID, locationPrefix(loc.Path))
			if err != nil {
				s.tracker.AppendError(fmt.Sprintf("location %s: list catalog: %v", loc.Path, err))
				continue
			}
			for _, f := range known {
				if set[f.FilePath] {
					continue
				}
				if err := s.files.Delete(f.ID); err != nil {
					s.tracker.AppendError(fmt.Sprintf("%s: remove: %v", f.FilePath, err))
					continue
				}
				if f.ShowID != nil {
					run.touch(*f.ShowID)
				}
				log.Printf("Scan: removed stale file %s", f.FilePath)
			}
		}
	}

	// Recompute denormalized counts for every show touched this run, then
	// drop shows and seasons left with no files.
	for _, showID := range run.touchedShows() {
		if err := s.shows.RecomputeCounts(showID); err != nil {
			s.tracker.AppendError(fmt.Sprintf("show %s: recompute counts: %v", showID, err))
			continue
		}
		if deleted, err := s.shows.PruneEmpty(showID); err != nil {
			s.tracker.AppendError(fmt.Sprintf("show %s: prune: %v", showID, err))
		} else if deleted {
			log.Printf("Scan: removed empty show %s", showID)
		}
	}

	// Location stats persist on completion and on cancellation alike.
	now := time.Now().UTC()
	for _, loc := range locations {
		if _, walked := discovered[loc.ID]; !walked {
			continue
		}
		count, err := s.files.CountByPathPrefix(opts.UserID, locationPrefix(loc.Path))
		if err != nil {
			s.tracker.AppendError(fmt.Sprintf("location %s: count: %v", loc.Path, err))
			continue
		}
		if err := s.locations.UpdateScanStats(loc.ID, now, count); err != nil {
			s.tracker.AppendError(fmt.Sprintf("location %s: update stats: %v", loc.Path, err))
		}
	}

	if cancelled {
		state = models.ScanStateCancelled
		log.Printf("Scan: cancelled after %d/%d files", s.tracker.Snapshot().FilesScanned, total)
	} else {
		snap := s.tracker.Snapshot()
		log.Printf("Scan: complete - %d files, %d errors", snap.FilesScanned, len(snap.Errors))
	}
	return nil
}

func (s *Scanner) resolveLocations(opts RunOptions) ([]*models.ScanLocation, error) {
	if len(opts.LocationIDs) > 0 {
		locs, err := s.locations.GetByIDs(opts.UserID, opts.LocationIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve locations: %w", err)
		}
		var enabled []*models.ScanLocation
		for _, loc := range locs {
			if loc.Enabled {
				enabled = append(enabled, loc)
			}
		}
		return enabled, nil
	}
	locs, err := s.locations.ListEnabled(opts.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve locations: %w", err)
	}
	return locs, nil
}

// processFile handles a single discovered path: incremental skip check,
// extraction, classification, show/season/file/track upsert, issue
// evaluation, and optional auto-fix. Failures are recorded per file and
// never abort the run.
func (s *Scanner) processFile(run *runState, loc *models.ScanLocation, path string) {
	st, err := os.Stat(path)
	if err != nil {
		s.tracker.AppendError(fmt.Sprintf("%s: %v", path, err))
		return
	}

	existing, err := s.files.GetByPath(run.opts.UserID, path)
	if err != nil {
		s.tracker.AppendError(fmt.Sprintf("%s: catalog lookup: %v", path, err))
		return
	}

	// Incremental skip: unchanged size and mtime means the stored record is
	// current. The path stays tombstone-eligible via the discovery set.
	if run.opts.Incremental && existing != nil &&
		existing.FileSize == st.Size() &&
		!st.ModTime().UTC().After(existing.LastModified.UTC()) {
		return
	}

	result, err := s.prober.Probe(path)
	if err != nil {
		log.Printf("Scan: probe failed for %s: %v", path, err)
		s.tracker.AppendError(fmt.Sprintf("%s: %v", path, err))
		return // prior catalog state for this file is left untouched
	}

	cls := Classify(path, loc.Path, loc.MediaType, run.settings.AnimeDetection)

	var plexShow *plex.Show
	if run.genres != nil && cls.ShowTitle != "" && loc.MediaType != models.MediaTypeMovie {
		ps, err := run.genres.FindShow(cls.ShowTitle)
		if err != nil {
			log.Printf("Scan: plex lookup failed for %q: %v", cls.ShowTitle, err)
		} else {
			plexShow = ps
		}
	}

	show, season, err := s.upsertShow(run, loc, cls, plexShow)
	if err != nil {
		s.tracker.AppendError(fmt.Sprintf("%s: %v", path, err))
		return
	}

	isAnime := cls.IsAnime
	if show != nil {
		isAnime = show.IsAnime
	}

	tracks := buildTracks(result.Tracks)
	verdict := Evaluate(tracks, isAnime, run.settings.AudioPreferences)

	// Auto-remediation: a non-anime file with a wrong default track but an
	// English track present gets its default flag rewritten on disk, then is
	// re-extracted so the catalog matches the mutated file.
	if run.settings.AudioPreferences.AutoFixEnglishDefaultNonAnime &&
		!isAnime && verdict.Has(IssueWrongDefault) && s.propedit != nil {
		if err := s.propedit.SetDefaultByLanguage(path, tracks, "en"); err != nil {
			log.Printf("Scan: auto-fix default failed for %s: %v", path, err)
		} else if refreshed, err := s.prober.Probe(path); err != nil {
			log.Printf("Scan: re-extract after auto-fix failed for %s: %v", path, err)
		} else {
			result = refreshed
			tracks = buildTracks(result.Tracks)
			verdict = Evaluate(tracks, isAnime, run.settings.AudioPreferences)
			if st2, err := os.Stat(path); err == nil {
				st = st2
			}
		}
	}

	file := existing
	if file == nil {
		file = &models.MediaFile{
			ID:       uuid.New(),
			UserID:   run.opts.UserID,
			FilePath: path,
		}
	}
	file.Filename = filepath.Base(path)
	file.EpisodeNumber = nil
	file.EpisodeTitle = nil
	file.ShowID = nil
	file.SeasonID = nil
	if show != nil {
		id := show.ID
		file.ShowID = &id
	}
	if season != nil {
		id := season.ID
		file.SeasonID = &id
	}
	if loc.MediaType != models.MediaTypeMovie {
		file.EpisodeNumber = cls.EpisodeNumber
		file.EpisodeTitle = cls.EpisodeTitle
	}
	file.FileSize = st.Size()
	file.ContainerFormat = result.Container
	file.DurationMS = result.DurationMS
	file.LastScanned = time.Now().UTC()
	file.LastModified = st.ModTime().UTC()
	file.HasIssues = verdict.HasIssues()
	file.IssueDetails = verdict.Details()

	for i := range tracks {
		tracks[i].ID = uuid.New()
		tracks[i].MediaFileID = file.ID
	}

	if err := s.files.Upsert(file, tracks); err != nil {
		s.tracker.AppendError(fmt.Sprintf("%s: persist: %v", path, err))
		return
	}
	if show != nil {
		run.touch(show.ID)
	}
}

// upsertShow finds or creates the show (and season) a file belongs to,
// applying anime-detection precedence: a manual override is never clobbered,
// then Plex genre, then folder keyword, then none.
func (s *Scanner) upsertShow(run *runState, loc *models.ScanLocation, cls Classification, plexShow *plex.Show) (*models.Show, *models.Season, error) {
	if cls.ShowTitle == "" {
		return nil, nil, nil
	}

	title := cls.ShowTitle
	isAnime := cls.IsAnime
	source := cls.AnimeSource
	var ratingKey, thumb *string
	if plexShow != nil {
		title = plexShow.Title
		rk := plexShow.RatingKey
		ratingKey = &rk
		thumb = plexShow.ThumbURL
		if plexShow.IsAnime {
			isAnime = true
			source = models.AnimeSourcePlexGenre
		}
	}

	lock := run.showLock(strings.ToLower(title) + "|" + string(loc.MediaType))
	lock.Lock()
	defer lock.Unlock()

	show, err := s.shows.FindByTitle(run.opts.UserID, title, loc.MediaType)
	if err != nil {
		return nil, nil, fmt.Errorf("find show: %w", err)
	}

	renamed := false
	if show == nil && plexShow != nil && !strings.EqualFold(title, cls.ShowTitle) {
		// Plex resolved a canonical title; an earlier scan may have created
		// the show under the path-derived one. Rename instead of duplicating.
		pathShow, err := s.shows.FindByTitle(run.opts.UserID, cls.ShowTitle, loc.MediaType)
		if err != nil {
			return nil, nil, fmt.Errorf("find show: %w", err)
		}
		if pathShow != nil {
			pathShow.Title = title
			show = pathShow
			renamed = true
		}
	}

	if show == nil {
		show = &models.Show{
			ID:            uuid.New(),
			UserID:        run.opts.UserID,
			Title:         title,
			MediaType:     loc.MediaType,
			IsAnime:       isAnime,
			AnimeSource:   source,
			PlexRatingKey: ratingKey,
			ThumbURL:      thumb,
		}
		if err := s.shows.Create(show); err != nil {
			return nil, nil, fmt.Errorf("create show: %w", err)
		}
	} else {
		changed := renamed
		if show.AnimeSource != models.AnimeSourceManual &&
			(show.IsAnime != isAnime || show.AnimeSource != source) {
			show.IsAnime = isAnime
			show.AnimeSource = source
			changed = true
		}
		if ratingKey != nil && (show.PlexRatingKey == nil || *show.PlexRatingKey != *ratingKey) {
			show.PlexRatingKey = ratingKey
			changed = true
		}
		if thumb != nil && (show.ThumbURL == nil || *show.ThumbURL != *thumb) {
			show.ThumbURL = thumb
			changed = true
		}
		if changed {
			if err := s.shows.Update(show); err != nil {
				return nil, nil, fmt.Errorf("update show: %w", err)
			}
		}
	}

	var season *models.Season
	if loc.MediaType != models.MediaTypeMovie && cls.SeasonNumber != nil {
		season, err = s.shows.FindSeason(show.ID, *cls.SeasonNumber)
		if err != nil {
			return nil, nil, fmt.Errorf("find season: %w", err)
		}
		if season == nil {
			season = &models.Season{
				ID:           uuid.New(),
				ShowID:       show.ID,
				SeasonNumber: *cls.SeasonNumber,
			}
			if err := s.shows.CreateSeason(season); err != nil {
				return nil, nil, fmt.Errorf("create season: %w", err)
			}
		}
	}

	return show, season, nil
}

// RescanFile force re-extracts a single file, bypassing the incremental skip.
// Used after a default-track mutation and by the rescan endpoint.
func (s *Scanner) RescanFile(userID, fileID uuid.UUID) error {
	file, err := s.files.GetByID(fileID)
	if err != nil {
		return err
	}
	if file == nil || file.UserID != userID {
		return fmt.Errorf("media file not found")
	}

	st, err := os.Stat(file.FilePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", mediainfo.ErrExtraction, file.FilePath, err)
	}

	result, err := s.prober.Probe(file.FilePath)
	if err != nil {
		return err
	}

	settings, err := s.settings.Snapshot(userID)
	if err != nil {
		return fmt.Errorf("settings snapshot: %w", err)
	}

	isAnime := false
	if file.ShowID != nil {
		show, err := s.shows.GetByID(*file.ShowID)
		if err != nil {
			return err
		}
		if show != nil {
			isAnime = show.IsAnime
		}
	}

	tracks := buildTracks(result.Tracks)
	verdict := Evaluate(tracks, isAnime, settings.AudioPreferences)

	file.FileSize = st.Size()
	file.ContainerFormat = result.Container
	file.DurationMS = result.DurationMS
	file.LastScanned = time.Now().UTC()
	file.LastModified = st.ModTime().UTC()
	file.HasIssues = verdict.HasIssues()
	file.IssueDetails = verdict.Details()

	for i := range tracks {
		tracks[i].ID = uuid.New()
		tracks[i].MediaFileID = file.ID
	}

	if err := s.files.Upsert(file, tracks); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if file.ShowID != nil {
		if err := s.shows.RecomputeCounts(*file.ShowID); err != nil {
			log.Printf("Scan: recompute counts for show %s: %v", *file.ShowID, err)
		}
	}
	return nil
}

// RemoveLocationFiles deletes every catalog record under a removed scan
// location and prunes shows left with no files. Called when a location is
// deleted so the catalog does not keep orphaned entries.
func (s *Scanner) RemoveLocationFiles(userID uuid.UUID, path string) error {
	known, err := s.files.ListByPathPrefix(userID, locationPrefix(path))
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}

	touched := make(map[uuid.UUID]bool)
	for _, f := range known {
		if err := s.files.Delete(f.ID); err != nil {
			return fmt.Errorf("remove %s: %w", f.FilePath, err)
		}
		if f.ShowID != nil {
			touched[*f.ShowID] = true
		}
	}

	for showID := range touched {
		if err := s.shows.RecomputeCounts(showID); err != nil {
			return fmt.Errorf("show %s: recompute counts: %w", showID, err)
		}
		if deleted, err := s.shows.PruneEmpty(showID); err != nil {
			return fmt.Errorf("show %s: prune: %w", showID, err)
		} else if deleted {
			log.Printf("Scan: removed empty show %s", showID)
		}
	}

	if len(known) > 0 {
		log.Printf("Scan: removed %d catalog entries under %s", len(known), path)
	}
	return nil
}

// SetDefaultAudio rewrites the default-track flag for a file and re-extracts
// it so the catalog reflects the mutated container.
func (s *Scanner) SetDefaultAudio(userID, fileID uuid.UUID, language string) error {
	file, err := s.files.GetByID(fileID)
	if err != nil {
		return err
	}
	if file == nil || file.UserID != userID {
		return fmt.Errorf("media file not found")
	}

	tracks, err := s.files.TracksForFile(file.ID)
	if err != nil {
		return err
	}

	if err := s.propedit.SetDefaultByLanguage(file.FilePath, tracks, language); err != nil {
		return err
	}
	return s.RescanFile(userID, fileID)
}

// ──────────────────── helpers ────────────────────

func discoverFiles(root string, extensions map[string]bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrLocationUnavailable)
	}

	var files []string
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, walkErr)
	}
	sort.Strings(files)
	return files, nil
}

func extensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// locationPrefix terminates a location path with a separator so prefix
// matching cannot cross into sibling directories (/media/tv vs /media/tv2).
func locationPrefix(path string) string {
	return strings.TrimRight(path, string(filepath.Separator)) + string(filepath.Separator)
}

func buildTracks(probed []mediainfo.Track) []models.AudioTrack {
	tracks := make([]models.AudioTrack, 0, len(probed))
	for _, t := range probed {
		tracks = append(tracks, models.AudioTrack{
			TrackIndex:    t.TrackIndex,
			Language:      t.Language,
			LanguageRaw:   t.LanguageRaw,
			Codec:         t.Codec,
			Channels:      t.Channels,
			ChannelLayout: t.ChannelLayout,
			Bitrate:       t.Bitrate,
			IsDefault:     t.IsDefault,
			IsForced:      t.IsForced,
			Title:         t.Title,
		})
	}
	return tracks
}
