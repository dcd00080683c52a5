package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

// OnLocationChanged is called, debounced, when files change under a scan
// location.
type OnLocationChanged func(userID, locationID uuid.UUID)

// LocationSource lists the scan locations to watch.
type LocationSource interface {
	ListAllEnabled() ([]*models.ScanLocation, error)
}

// SettingsSource loads a user's settings, used to honor each owner's
// configured file extensions when filtering events.
type SettingsSource interface {
	Snapshot(userID uuid.UUID) (models.UserSettings, error)
}

// Watcher monitors enabled scan locations and triggers incremental rescans
// when media files appear, change, or disappear.
type Watcher struct {
	locations LocationSource
	settings  SettingsSource
	callback  OnLocationChanged
	watcher   *fsnotify.Watcher

	mu         sync.Mutex
	watched    map[string]*models.ScanLocation // watched dir → owning location
	extensions map[uuid.UUID]map[string]bool   // user ID → allowed extensions
	debounce   map[uuid.UUID]*time.Timer       // location ID → pending trigger
	stop       chan struct{}
}

const debounceWindow = 5 * time.Second

func New(locations LocationSource, settings SettingsSource, cb OnLocationChanged) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		locations:  locations,
		settings:   settings,
		callback:   cb,
		watcher:    fw,
		watched:    make(map[string]*models.ScanLocation),
		extensions: make(map[uuid.UUID]map[string]bool),
		debounce:   make(map[uuid.UUID]*time.Timer),
		stop:       make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	go w.eventLoop()
	w.Refresh()
	log.Println("[watcher] filesystem watcher started")
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

// Refresh re-arms watches after the location set changes, and reloads each
// owner's extension filter so settings edits take effect without a restart.
func (w *Watcher) Refresh() {
	locations, err := w.locations.ListAllEnabled()
	if err != nil {
		log.Printf("[watcher] error loading locations: %v", err)
		return
	}

	extensions := make(map[uuid.UUID]map[string]bool)
	for _, loc := range locations {
		if _, ok := extensions[loc.UserID]; ok {
			continue
		}
		settings, err := w.settings.Snapshot(loc.UserID)
		if err != nil {
			log.Printf("[watcher] error loading settings for user %s: %v", loc.UserID, err)
			settings = models.DefaultUserSettings()
		}
		extensions[loc.UserID] = extensionSet(settings.FileExtensions)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.extensions = extensions

	desired := make(map[string]*models.ScanLocation)
	for _, loc := range locations {
		desired[loc.Path] = loc
	}

	for path, loc := range w.watched {
		root := loc.Path
		if _, ok := desired[root]; !ok {
			w.watcher.Remove(path)
			delete(w.watched, path)
		}
	}

	for path, loc := range desired {
		if _, ok := w.watched[path]; ok {
			continue
		}
		if err := w.addRecursive(path, loc); err != nil {
			log.Printf("[watcher] error adding %s: %v", path, err)
		}
	}

	log.Printf("[watcher] watching %d paths across %d locations", len(w.watched), len(locations))
}

func (w *Watcher) addRecursive(root string, loc *models.ScanLocation) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible dirs
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return nil
			}
			w.watched[path] = loc
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") ||
		strings.HasSuffix(base, ".part") {
		return
	}

	relevant := event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !relevant {
		return
	}

	loc := w.resolveLocation(event.Name)
	if loc == nil {
		return
	}

	// New directories join the watch set so nested episodes get seen.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if err := w.watcher.Add(event.Name); err == nil {
				w.watched[event.Name] = loc
			}
			w.mu.Unlock()
			w.trigger(loc)
			return
		}
	}

	if !w.allowedExt(loc.UserID, strings.ToLower(filepath.Ext(event.Name))) {
		return
	}
	w.trigger(loc)
}

// allowedExt checks the event's extension against the location owner's
// configured extensions, falling back to the defaults when the owner's
// settings were never loaded.
func (w *Watcher) allowedExt(userID uuid.UUID, ext string) bool {
	w.mu.Lock()
	set, ok := w.extensions[userID]
	w.mu.Unlock()
	if !ok {
		set = extensionSet(models.DefaultUserSettings().FileExtensions)
	}
	return set[ext]
}

// trigger schedules a debounced incremental rescan of the location, so a
// burst of copies collapses into one scan.
func (w *Watcher) trigger(loc *models.ScanLocation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[loc.ID]; ok {
		timer.Stop()
	}
	userID, locID := loc.UserID, loc.ID
	w.debounce[locID] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.debounce, locID)
		w.mu.Unlock()
		w.callback(userID, locID)
	})
}

func (w *Watcher) resolveLocation(path string) *models.ScanLocation {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir := filepath.Dir(path)
	for dir != "/" && dir != "." {
		if loc, ok := w.watched[dir]; ok {
			return loc
		}
		dir = filepath.Dir(dir)
	}
	return nil
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
