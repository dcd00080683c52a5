package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JustinTDCT/TrackHound/internal/auth"
	"github.com/JustinTDCT/TrackHound/internal/config"
	"github.com/JustinTDCT/TrackHound/internal/db"
	"github.com/JustinTDCT/TrackHound/internal/httputil"
	"github.com/JustinTDCT/TrackHound/internal/jobs"
	"github.com/JustinTDCT/TrackHound/internal/locations"
	"github.com/JustinTDCT/TrackHound/internal/media"
	"github.com/JustinTDCT/TrackHound/internal/mediainfo"
	"github.com/JustinTDCT/TrackHound/internal/mkvedit"
	"github.com/JustinTDCT/TrackHound/internal/plex"
	"github.com/JustinTDCT/TrackHound/internal/repository"
	"github.com/JustinTDCT/TrackHound/internal/scanner"
	"github.com/JustinTDCT/TrackHound/internal/settings"
	"github.com/JustinTDCT/TrackHound/internal/version"
	"github.com/JustinTDCT/TrackHound/internal/ws"
)

type Server struct {
	config *config.Config
	router chi.Router

	userRepo     *repository.UserRepository
	locationRepo *repository.LocationRepository
	showRepo     *repository.ShowRepository
	mediaRepo    *repository.MediaRepository
	settingsRepo *repository.SettingsRepository

	cipher    *auth.Cipher
	scanner   *scanner.Scanner
	hub       *ws.Hub
	refresher *refresherProxy
}

// refresherProxy lets the filesystem watcher be attached after the router is
// built; Refresh is a no-op until then.
type refresherProxy struct {
	target locations.Refresher
}

func (p *refresherProxy) Refresh() {
	if p.target != nil {
		p.target.Refresh()
	}
}

// SetRefresher attaches the filesystem watcher so location changes re-arm
// its watches.
func (s *Server) SetRefresher(r locations.Refresher) {
	s.refresher.target = r
}

func NewServer(cfg *config.Config, database *db.DB, queue *jobs.Queue) *Server {
	userRepo := repository.NewUserRepository(database.DB)
	locationRepo := repository.NewLocationRepository(database.DB)
	showRepo := repository.NewShowRepository(database.DB)
	mediaRepo := repository.NewMediaRepository(database.DB)
	settingsRepo := repository.NewSettingsRepository(database.DB)

	cipher := auth.NewCipher(cfg.EncryptionKey)
	hub := ws.NewHub(cfg.JWTSecret)

	var plexFactory func(token string) scanner.GenreSource
	if cfg.PlexServerURL != "" {
		serverURL := cfg.PlexServerURL
		plexFactory = func(token string) scanner.GenreSource {
			return plex.NewClient(serverURL, token)
		}
	}

	sc := scanner.NewScanner(
		locationRepo, showRepo, mediaRepo, settingsRepo,
		mediainfo.NewFFprobe(cfg.FFprobePath),
		mkvedit.NewPropEdit(cfg.MKVPropeditPath),
		plexFactory,
		scanner.NewStatusTracker(),
		cfg.ScanWorkers,
	)
	if queue != nil {
		sc.SetEnqueuer(queue)
		jobs.RegisterHandlers(queue, sc, userRepo, cipher, hub)
	}

	s := &Server{
		config:       cfg,
		userRepo:     userRepo,
		locationRepo: locationRepo,
		showRepo:     showRepo,
		mediaRepo:    mediaRepo,
		settingsRepo: settingsRepo,
		cipher:       cipher,
		scanner:      sc,
		hub:          hub,
		refresher:    &refresherProxy{},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	mw := auth.NewMiddleware(s.config.JWTSecret)
	authHandler := auth.NewHandler(s.userRepo, s.cipher, s.config.JWTSecret, nil)
	scanHandler := scanner.NewHandler(s.scanner, s.locationRepo)
	mediaHandler := media.NewHandler(s.showRepo, s.mediaRepo, s.scanner)
	locationHandler := locations.NewHandler(s.locationRepo, s.config.MediaRoot, s.refresher, s.scanner)
	settingsHandler := settings.NewHandler(s.settingsRepo)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Load().Version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Router())

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Mount("/user", authHandler.MeRouter())
			r.Route("/scan", func(r chi.Router) {
				scanHandler.Register(r)
				r.Mount("/locations", locationHandler.Router())
			})
			r.Mount("/media", mediaHandler.Router())
			r.Mount("/settings", settingsHandler.Router())
		})
	})

	r.Get("/api/ws", s.hub.HandleWebSocket)

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Scanner() *scanner.Scanner                    { return s.scanner }
func (s *Server) Hub() *ws.Hub                                 { return s.hub }
func (s *Server) UserRepo() *repository.UserRepository         { return s.userRepo }
func (s *Server) LocationRepo() *repository.LocationRepository { return s.locationRepo }
func (s *Server) SettingsRepo() *repository.SettingsRepository { return s.settingsRepo }
