package scanner

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/auth"
	"github.com/JustinTDCT/TrackHound/internal/httputil"
)

type Handler struct {
	scanner   *Scanner
	locations LocationStore
}

func NewHandler(s *Scanner, locations LocationStore) *Handler {
	return &Handler{scanner: s, locations: locations}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register adds the scan routes to an existing router, so sub-resources like
// locations can share the /scan prefix.
func (h *Handler) Register(r chi.Router) {
	r.Get("/status", h.status)
	r.Post("/start", h.start)
	r.Post("/cancel", h.cancel)
}

type startScanRequest struct {
	LocationIDs []uuid.UUID `json:"location_ids"`
	Incremental *bool       `json:"incremental"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req startScanRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	incremental := true
	if req.Incremental != nil {
		incremental = *req.Incremental
	}

	if len(req.LocationIDs) > 0 {
		locs, err := h.locations.GetByIDs(u.UserID, req.LocationIDs)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve locations")
			return
		}
		if len(locs) != len(req.LocationIDs) {
			httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "scan location not found")
			return
		}
	}

	if err := h.scanner.StartScan(u.UserID, req.LocationIDs, incremental); err != nil {
		if errors.Is(err, ErrScanAlreadyRunning) {
			httputil.WriteError(w, http.StatusConflict, "SCAN_RUNNING", "a scan is already running")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to start scan")
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "scanning",
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.scanner.CancelScan(); err != nil {
		if errors.Is(err, ErrScanNotRunning) {
			httputil.WriteError(w, http.StatusConflict, "SCAN_NOT_RUNNING", "no scan is running")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel scan")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "cancelling",
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.scanner.Status().Snapshot())
}
