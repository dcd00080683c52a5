package jobs

import (
	"github.com/JustinTDCT/TrackHound/internal/auth"
	"github.com/JustinTDCT/TrackHound/internal/repository"
	"github.com/JustinTDCT/TrackHound/internal/scanner"
)

// ──────── Payloads ────────

type ScanPayload struct {
	UserID      string   `json:"user_id"`
	LocationIDs []string `json:"location_ids,omitempty"`
	Incremental bool     `json:"incremental"`
}

type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, sc *scanner.Scanner, userRepo *repository.UserRepository,
	cipher *auth.Cipher, notifier EventNotifier) {

	q.RegisterHandler(TaskScanCatalog, NewScanHandler(sc, userRepo, cipher, notifier))
}
