package scheduler

import (
	"log"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/JustinTDCT/TrackHound/internal/scanner"
)

// UserSource lists the users whose libraries get scheduled scans.
type UserSource interface {
	ListIDs() ([]uuid.UUID, error)
}

// Scheduler enqueues an incremental scan task for every user on a cron
// schedule. Tasks go straight onto the queue, which serializes execution
// and dedupes by user, so a user whose scan is still queued or running is
// not enqueued twice.
type Scheduler struct {
	cron     *cron.Cron
	users    UserSource
	enqueuer scanner.Enqueuer
	schedule string
}

func New(users UserSource, enq scanner.Enqueuer, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		users:    users,
		enqueuer: enq,
		schedule: schedule,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		log.Println("[scheduler] no schedule configured, scheduled scans disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.runAll); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] started (schedule=%q)", s.schedule)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) runAll() {
	userIDs, err := s.users.ListIDs()
	if err != nil {
		log.Printf("[scheduler] list users: %v", err)
		return
	}
	for _, userID := range userIDs {
		if err := s.enqueuer.EnqueueScan(userID, nil, true); err != nil {
			log.Printf("[scheduler] enqueue scan for user %s: %v", userID, err)
			continue
		}
		log.Printf("[scheduler] scheduled scan queued for user %s", userID)
	}
}
