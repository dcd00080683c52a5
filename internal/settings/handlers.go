package settings

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/TrackHound/internal/auth"
	"github.com/JustinTDCT/TrackHound/internal/httputil"
	"github.com/JustinTDCT/TrackHound/internal/models"
	"github.com/JustinTDCT/TrackHound/internal/repository"
)

type Handler struct {
	settings *repository.SettingsRepository
}

func NewHandler(settings *repository.SettingsRepository) *Handler {
	return &Handler{settings: settings}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Put("/", h.put)
	return r
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	settings, err := h.settings.Snapshot(u.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings)
}

// put replaces the full settings document. A running scan keeps the snapshot
// it started with; changes apply from the next run.
func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	var settings models.UserSettings
	if err := httputil.ReadJSON(r, &settings); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if msg := validate(&settings); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}

	if err := h.settings.Save(u.UserID, settings); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to save settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings)
}

func validate(settings *models.UserSettings) string {
	if len(settings.FileExtensions) == 0 {
		return "file_extensions must not be empty"
	}
	for i, ext := range settings.FileExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			return "file_extensions must not contain empty entries"
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		settings.FileExtensions[i] = ext
	}
	for i, codec := range settings.AudioPreferences.PreferredCodecs {
		settings.AudioPreferences.PreferredCodecs[i] = strings.ToLower(strings.TrimSpace(codec))
	}
	for i, kw := range settings.AnimeDetection.AnimeFolderKeywords {
		settings.AnimeDetection.AnimeFolderKeywords[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	return ""
}
