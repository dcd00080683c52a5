package locations

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/auth"
	"github.com/JustinTDCT/TrackHound/internal/httputil"
	"github.com/JustinTDCT/TrackHound/internal/models"
	"github.com/JustinTDCT/TrackHound/internal/repository"
)

// Refresher is notified when the location set changes so the filesystem
// watcher can re-arm its watches.
type Refresher interface {
	Refresh()
}

// Cleaner removes the catalog records under a deleted location's root.
type Cleaner interface {
	RemoveLocationFiles(userID uuid.UUID, path string) error
}

type Handler struct {
	locations *repository.LocationRepository
	mediaRoot string
	refresher Refresher
	cleaner   Cleaner
}

func NewHandler(locations *repository.LocationRepository, mediaRoot string, refresher Refresher, cleaner Cleaner) *Handler {
	return &Handler{locations: locations, mediaRoot: mediaRoot, refresher: refresher, cleaner: cleaner}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Get("/browse", h.browse)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	locations, err := h.locations.ListByUser(u.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list locations")
		return
	}
	if locations == nil {
		locations = []*models.ScanLocation{}
	}
	httputil.WriteJSON(w, http.StatusOK, locations)
}

type locationRequest struct {
	Path      string           `json:"path"`
	Label     string           `json:"label"`
	MediaType models.MediaType `json:"media_type"`
	Enabled   *bool            `json:"enabled"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	var req locationRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if msg := h.validate(&req); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}

	existing, err := h.locations.GetByPath(u.UserID, req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "location lookup failed")
		return
	}
	if existing != nil {
		httputil.WriteError(w, http.StatusConflict, "CONFLICT", "location already exists")
		return
	}

	loc := &models.ScanLocation{
		ID:        uuid.New(),
		UserID:    u.UserID,
		Path:      req.Path,
		Label:     req.Label,
		MediaType: req.MediaType,
		Enabled:   true,
	}
	if req.Enabled != nil {
		loc.Enabled = *req.Enabled
	}
	if loc.Label == "" {
		loc.Label = filepath.Base(loc.Path)
	}

	if err := h.locations.Create(loc); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create location")
		return
	}
	if h.refresher != nil {
		h.refresher.Refresh()
	}
	httputil.WriteJSON(w, http.StatusCreated, loc)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	loc := h.owned(w, r, u.UserID)
	if loc == nil {
		return
	}

	var req locationRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if msg := h.validate(&req); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}

	loc.Path = req.Path
	loc.MediaType = req.MediaType
	if req.Label != "" {
		loc.Label = req.Label
	}
	if req.Enabled != nil {
		loc.Enabled = *req.Enabled
	}

	if err := h.locations.Update(loc); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to update location")
		return
	}
	if h.refresher != nil {
		h.refresher.Refresh()
	}
	httputil.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	loc := h.owned(w, r, u.UserID)
	if loc == nil {
		return
	}
	if err := h.locations.Delete(u.UserID, loc.ID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete location")
		return
	}
	if h.cleaner != nil {
		if err := h.cleaner.RemoveLocationFiles(u.UserID, loc.Path); err != nil {
			log.Printf("Locations: catalog cleanup for %s: %v", loc.Path, err)
		}
	}
	if h.refresher != nil {
		h.refresher.Refresh()
	}
	httputil.WriteNoContent(w)
}

type browseEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// browse lists directories under the configured media root for the location
// picker. Paths outside the root are rejected.
func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = h.mediaRoot
	}

	cleaned := filepath.Clean(path)
	root := filepath.Clean(h.mediaRoot)
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "path outside media root")
		return
	}

	entries, err := os.ReadDir(cleaned)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "directory not found")
		return
	}

	var dirs []browseEntry
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, browseEntry{
			Name: entry.Name(),
			Path: filepath.Join(cleaned, entry.Name()),
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	if dirs == nil {
		dirs = []browseEntry{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"path":        cleaned,
		"directories": dirs,
	})
}

func (h *Handler) validate(req *locationRequest) string {
	if req.Path == "" {
		return "path required"
	}
	if !filepath.IsAbs(req.Path) {
		return "path must be absolute"
	}
	if !req.MediaType.Valid() {
		return "invalid media_type"
	}
	return ""
}

func (h *Handler) owned(w http.ResponseWriter, r *http.Request, userID uuid.UUID) *models.ScanLocation {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid location id")
		return nil
	}
	loc, err := h.locations.GetByID(userID, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load location")
		return nil
	}
	if loc == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "location not found")
		return nil
	}
	return loc
}
