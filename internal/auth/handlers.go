package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/httputil"
	"github.com/JustinTDCT/TrackHound/internal/models"
	"github.com/JustinTDCT/TrackHound/internal/plex"
)

// AccountVerifier checks a Plex token against plex.tv. Swappable in tests.
type AccountVerifier func(token string) (*plex.Account, error)

type UserStore interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByPlexUserID(plexUserID string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
}

type Handler struct {
	users     UserStore
	cipher    *Cipher
	jwtSecret string
	verify    AccountVerifier
}

func NewHandler(users UserStore, cipher *Cipher, jwtSecret string, verify AccountVerifier) *Handler {
	if verify == nil {
		verify = plex.VerifyAccount
	}
	return &Handler{users: users, cipher: cipher, jwtSecret: jwtSecret, verify: verify}
}

// Router returns the unauthenticated auth routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/plex/exchange", h.plexExchange)
	return r
}

// MeRouter returns routes that sit behind the auth middleware.
func (h *Handler) MeRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.me)
	return r
}

type plexExchangeRequest struct {
	Token string `json:"token"`
}

type plexExchangeResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// plexExchange trades a Plex account token for a session token, creating the
// local user on first sign-in.
func (h *Handler) plexExchange(w http.ResponseWriter, r *http.Request) {
	var req plexExchangeRequest
	if err := httputil.ReadJSON(r, &req); err != nil || req.Token == "" {
		httputil.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "plex token required")
		return
	}

	account, err := h.verify(req.Token)
	if err != nil {
		log.Printf("Auth: plex verification failed: %v", err)
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "plex token rejected")
		return
	}

	encrypted, err := h.cipher.Encrypt(req.Token)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to store credentials")
		return
	}

	user, err := h.users.GetByPlexUserID(account.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "user lookup failed")
		return
	}

	now := time.Now().UTC()
	if user == nil {
		user = &models.User{
			ID:           uuid.New(),
			PlexUserID:   account.ID,
			PlexUsername: account.Username,
			PlexEmail:    account.Email,
			PlexToken:    encrypted,
			PlexThumbURL: account.ThumbURL,
			CreatedAt:    now,
			LastLogin:    now,
		}
		if err := h.users.Create(user); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create user")
			return
		}
		log.Printf("Auth: created user %s (%s)", user.PlexUsername, user.ID)
	} else {
		user.PlexUsername = account.Username
		user.PlexEmail = account.Email
		user.PlexToken = encrypted
		user.PlexThumbURL = account.ThumbURL
		user.LastLogin = now
		if err := h.users.Update(user); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to update user")
			return
		}
	}

	session, err := IssueToken(h.jwtSecret, user.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue session")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, plexExchangeResponse{Token: session, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	if u == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	user, err := h.users.GetByID(u.UserID)
	if err != nil || user == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
