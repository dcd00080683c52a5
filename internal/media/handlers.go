package media

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/auth"
	"github.com/JustinTDCT/TrackHound/internal/httputil"
	"github.com/JustinTDCT/TrackHound/internal/mediainfo"
	"github.com/JustinTDCT/TrackHound/internal/mkvedit"
	"github.com/JustinTDCT/TrackHound/internal/models"
	"github.com/JustinTDCT/TrackHound/internal/repository"
	"github.com/JustinTDCT/TrackHound/internal/scanner"
)

type Handler struct {
	shows   *repository.ShowRepository
	files   *repository.MediaRepository
	scanner *scanner.Scanner
}

func NewHandler(shows *repository.ShowRepository, files *repository.MediaRepository, sc *scanner.Scanner) *Handler {
	return &Handler{shows: shows, files: files, scanner: sc}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/stats", h.stats)
	r.Get("/shows", h.listShows)
	r.Get("/shows/{id}", h.getShow)
	r.Patch("/shows/{id}", h.patchShow)
	r.Get("/shows/{id}/seasons/{number}", h.getSeason)
	r.Get("/files", h.listFiles)
	r.Get("/files/{id}", h.getFile)
	r.Post("/files/{id}/rescan", h.rescanFile)
	r.Post("/files/{id}/default-audio", h.setDefaultAudio)
	r.Get("/export", h.exportIssues)
	return r
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	stats, err := h.files.Stats(u.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// ──────────────────── Shows ────────────────────

func (h *Handler) listShows(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	filter := repository.ShowFilter{
		Search: q.Get("q"),
		Limit:  queryInt(q.Get("limit"), 50),
		Offset: queryInt(q.Get("offset"), 0),
	}
	if raw := q.Get("media_type"); raw != "" {
		mt := models.MediaType(raw)
		if !mt.Valid() {
			httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid media_type")
			return
		}
		filter.MediaType = &mt
	}
	if raw := q.Get("is_anime"); raw != "" {
		v := raw == "true"
		filter.IsAnime = &v
	}
	filter.HasIssues = q.Get("has_issues") == "true"

	shows, total, err := h.shows.List(u.UserID, filter)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list shows")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shows":  shows,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *Handler) getShow(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	show := h.ownedShow(w, r, u.UserID)
	if show == nil {
		return
	}
	seasons, err := h.shows.ListSeasons(show.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list seasons")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"show":    show,
		"seasons": seasons,
	})
}

type patchShowRequest struct {
	IsAnime       *bool `json:"is_anime"`
	ClearOverride bool  `json:"clear_override"`
}

// patchShow sets or clears the manual anime override. A manual override is
// sticky: scans never change it until it is cleared here.
func (h *Handler) patchShow(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	show := h.ownedShow(w, r, u.UserID)
	if show == nil {
		return
	}

	var req patchShowRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	switch {
	case req.ClearOverride:
		// Next scan re-derives the flag from Plex genres or folder keywords.
		show.AnimeSource = models.AnimeSourceNone
	case req.IsAnime != nil:
		show.IsAnime = *req.IsAnime
		show.AnimeSource = models.AnimeSourceManual
	default:
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "is_anime or clear_override required")
		return
	}

	if err := h.shows.Update(show); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to update show")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, show)
}

func (h *Handler) getSeason(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	show := h.ownedShow(w, r, u.UserID)
	if show == nil {
		return
	}

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid season number")
		return
	}
	season, err := h.shows.FindSeason(show.ID, number)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load season")
		return
	}
	if season == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "season not found")
		return
	}

	files, err := h.files.ListBySeason(season.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list files")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"season": season,
		"files":  files,
	})
}

// ──────────────────── Files ────────────────────

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	filter := repository.FileFilter{
		Search:    q.Get("q"),
		HasIssues: q.Get("has_issues") == "true",
		Limit:     queryInt(q.Get("limit"), 100),
		Offset:    queryInt(q.Get("offset"), 0),
	}
	if raw := q.Get("show_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid show_id")
			return
		}
		filter.ShowID = &id
	}
	if raw := q.Get("season_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid season_id")
			return
		}
		filter.SeasonID = &id
	}

	files, total, err := h.files.List(u.UserID, filter)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list files")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"files":  files,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	file := h.ownedFile(w, r, u.UserID)
	if file == nil {
		return
	}
	tracks, err := h.files.TracksForFile(file.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load tracks")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"file":         file,
		"audio_tracks": tracks,
	})
}

func (h *Handler) rescanFile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	file := h.ownedFile(w, r, u.UserID)
	if file == nil {
		return
	}

	if err := h.scanner.RescanFile(u.UserID, file.ID); err != nil {
		if errors.Is(err, mediainfo.ErrExtraction) {
			httputil.WriteError(w, http.StatusUnprocessableEntity, "EXTRACTION_FAILED", err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "rescan failed")
		return
	}

	refreshed, err := h.files.GetByID(file.ID)
	if err != nil || refreshed == nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to reload file")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, refreshed)
}

type setDefaultAudioRequest struct {
	Language string `json:"language"`
}

func (h *Handler) setDefaultAudio(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	file := h.ownedFile(w, r, u.UserID)
	if file == nil {
		return
	}

	var req setDefaultAudioRequest
	if err := httputil.ReadJSON(r, &req); err != nil || req.Language == "" {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "language required")
		return
	}

	err := h.scanner.SetDefaultAudio(u.UserID, file.ID, req.Language)
	switch {
	case err == nil:
	case errors.Is(err, mkvedit.ErrUnsupportedContainer):
		httputil.WriteError(w, http.StatusBadRequest, "UNSUPPORTED_CONTAINER", "default track can only be set on MKV files")
		return
	case errors.Is(err, mkvedit.ErrLanguageNotFound):
		httputil.WriteError(w, http.StatusBadRequest, "LANGUAGE_NOT_FOUND",
			fmt.Sprintf("no %s audio track in file", req.Language))
		return
	case errors.Is(err, mediainfo.ErrExtraction):
		httputil.WriteError(w, http.StatusUnprocessableEntity, "EXTRACTION_FAILED", err.Error())
		return
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to set default audio")
		return
	}

	refreshed, err := h.files.GetByID(file.ID)
	if err != nil || refreshed == nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to reload file")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, refreshed)
}

// ──────────────────── Export ────────────────────

// exportIssues streams every flagged file as CSV.
func (h *Handler) exportIssues(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	rows, err := h.files.ListIssueRows(u.UserID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load issues")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="audio-issues-%s.csv"`, time.Now().UTC().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"show", "season", "episode", "filename", "path", "issues", "audio_languages", "audio_codecs"})
	for _, row := range rows {
		_ = cw.Write([]string{
			strOrEmpty(row.ShowTitle),
			intOrEmpty(row.SeasonNumber),
			intOrEmpty(row.EpisodeNumber),
			row.Filename,
			row.FilePath,
			strOrEmpty(row.IssueDetails),
			strOrEmpty(row.AudioLanguages),
			strOrEmpty(row.AudioCodecs),
		})
	}
	cw.Flush()
}

// ──────────────────── helpers ────────────────────

func (h *Handler) ownedShow(w http.ResponseWriter, r *http.Request, userID uuid.UUID) *models.Show {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid show id")
		return nil
	}
	show, err := h.shows.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load show")
		return nil
	}
	if show == nil || show.UserID != userID {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "show not found")
		return nil
	}
	return show
}

func (h *Handler) ownedFile(w http.ResponseWriter, r *http.Request, userID uuid.UUID) *models.MediaFile {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid file id")
		return nil
	}
	file, err := h.files.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load file")
		return nil
	}
	if file == nil || file.UserID != userID {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "media file not found")
		return nil
	}
	return file
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
