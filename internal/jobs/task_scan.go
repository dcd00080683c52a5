package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/JustinTDCT/TrackHound/internal/auth"
	"github.com/JustinTDCT/TrackHound/internal/repository"
	"github.com/JustinTDCT/TrackHound/internal/scanner"
)

type ScanHandler struct {
	scanner  *scanner.Scanner
	userRepo *repository.UserRepository
	cipher   *auth.Cipher
	notifier EventNotifier
}

func NewScanHandler(sc *scanner.Scanner, userRepo *repository.UserRepository,
	cipher *auth.Cipher, notifier EventNotifier) *ScanHandler {
	return &ScanHandler{scanner: sc, userRepo: userRepo, cipher: cipher, notifier: notifier}
}

func (h *ScanHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ScanPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}

	opts := scanner.RunOptions{
		UserID:      userID,
		Incremental: p.Incremental,
	}
	for _, raw := range p.LocationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse location id: %w", err)
		}
		opts.LocationIDs = append(opts.LocationIDs, id)
	}

	// The user's Plex token is decrypted only for the run's duration.
	if user, err := h.userRepo.GetByID(userID); err != nil {
		log.Printf("Job: user lookup failed: %v", err)
	} else if user != nil && user.PlexToken != "" {
		token, err := h.cipher.Decrypt(user.PlexToken)
		if err != nil {
			log.Printf("Job: plex token decrypt failed for user %s: %v", userID, err)
		} else {
			opts.PlexToken = token
		}
	}

	log.Printf("Job: scan starting for user %s (incremental=%v)", userID, p.Incremental)
	if h.notifier != nil {
		h.notifier.Broadcast("scan:start", map[string]interface{}{
			"user_id":     p.UserID,
			"incremental": p.Incremental,
		})
	}

	// Throttled progress callback: at most one broadcast every 500ms, plus
	// always the final file. Called from concurrent scan workers.
	var progressFn scanner.ProgressFunc
	if h.notifier != nil {
		var mu sync.Mutex
		var lastBroadcast time.Time
		progressFn = func(current, total int, filename string) {
			mu.Lock()
			now := time.Now()
			if now.Sub(lastBroadcast) < 500*time.Millisecond && current != total {
				mu.Unlock()
				return
			}
			lastBroadcast = now
			mu.Unlock()
			h.notifier.Broadcast("scan:progress", map[string]interface{}{
				"current":  current,
				"total":    total,
				"filename": filename,
			})
		}
	}

	if err := h.scanner.Run(opts, progressFn); err != nil {
		if h.notifier != nil {
			h.notifier.Broadcast("scan:failed", map[string]interface{}{
				"user_id": p.UserID,
				"error":   err.Error(),
			})
		}
		return fmt.Errorf("scan: %w", err)
	}

	status := h.scanner.Status().Snapshot()
	log.Printf("Job: scan finished for user %s - %d files, %d errors",
		userID, status.FilesScanned, len(status.Errors))
	if h.notifier != nil {
		h.notifier.Broadcast("scan:complete", map[string]interface{}{
			"user_id": p.UserID,
			"status":  status,
		})
	}
	return nil
}
