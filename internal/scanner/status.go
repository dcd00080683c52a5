package scanner

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JustinTDCT/TrackHound/internal/models"
)

var (
	ErrScanAlreadyRunning = errors.New("a scan is already in progress")
	ErrScanNotRunning     = errors.New("no scan is currently running")
)

// StatusTracker owns the process-wide scan status and the cancellation flag.
// The reconciler is the only writer during a run; the API layer reads
// snapshots and requests cancellation.
type StatusTracker struct {
	mu     sync.Mutex
	status models.ScanStatus
	cancel atomic.Bool
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		status: models.ScanStatus{State: models.ScanStateIdle, Errors: []string{}},
	}
}

// Begin transitions to running, resetting all progress from the prior run.
// This is the single-run lock: a second Begin while running fails.
func (t *StatusTracker) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.IsRunning {
		return ErrScanAlreadyRunning
	}

	t.cancel.Store(false)
	now := time.Now().UTC()
	t.status = models.ScanStatus{
		IsRunning: true,
		State:     models.ScanStateRunning,
		StartedAt: &now,
		Errors:    []string{},
	}
	return nil
}

// adopt ensures running state for a scan task that outlived the process that
// called Begin (the tracker is in-memory; a restart loses the flag).
func (t *StatusTracker) adopt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status.IsRunning {
		t.cancel.Store(false)
		now := time.Now().UTC()
		t.status = models.ScanStatus{
			IsRunning: true,
			State:     models.ScanStateRunning,
			StartedAt: &now,
			Errors:    []string{},
		}
	}
}

// Snapshot returns a copy of the current status safe for callers to keep.
func (t *StatusTracker) Snapshot() models.ScanStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.status
	snap.Errors = append([]string(nil), t.status.Errors...)
	return snap
}

// RequestCancel sets the cancellation flag. Advisory only: in-flight
// extraction runs to completion and the walk stops at the next file boundary.
func (t *StatusTracker) RequestCancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status.IsRunning {
		return ErrScanNotRunning
	}
	t.cancel.Store(true)
	return nil
}

func (t *StatusTracker) Cancelled() bool {
	return t.cancel.Load()
}

func (t *StatusTracker) SetLocation(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.CurrentLocation = &path
}

func (t *StatusTracker) SetTotal(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.FilesTotal = n
}

// FileDone records a processed file and returns the running count.
func (t *StatusTracker) FileDone(filename string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.FilesScanned++
	t.status.CurrentFile = &filename
	return t.status.FilesScanned
}

func (t *StatusTracker) AppendError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Errors = append(t.status.Errors, msg)
}

// Finish freezes the status until the next Begin. Progress counts and errors
// are kept visible; current location/file are cleared.
func (t *StatusTracker) Finish(state models.ScanState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel.Store(false)
	t.status.IsRunning = false
	t.status.State = state
	t.status.CurrentLocation = nil
	t.status.CurrentFile = nil
}
