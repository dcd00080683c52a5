package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TrackHound/internal/api"
	"github.com/JustinTDCT/TrackHound/internal/config"
	"github.com/JustinTDCT/TrackHound/internal/db"
	"github.com/JustinTDCT/TrackHound/internal/jobs"
	"github.com/JustinTDCT/TrackHound/internal/scanner"
	"github.com/JustinTDCT/TrackHound/internal/scheduler"
	"github.com/JustinTDCT/TrackHound/internal/version"
	"github.com/JustinTDCT/TrackHound/internal/watcher"
)

func main() {
	ver := version.Load()
	log.Printf("TrackHound %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database, "migrations"); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	queue := jobs.NewQueue(cfg.RedisAddr)
	defer queue.Stop()

	srv := api.NewServer(cfg, database, queue)

	if err := queue.Start(context.Background()); err != nil {
		log.Fatalf("job queue failed: %v", err)
	}

	sched := scheduler.New(srv.UserRepo(), queue, cfg.ScanSchedule)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler failed: %v", err)
	}
	defer sched.Stop()

	if cfg.WatchFilesystem {
		fw, err := watcher.New(srv.LocationRepo(), srv.SettingsRepo(), func(userID, locationID uuid.UUID) {
			err := srv.Scanner().StartScan(userID, []uuid.UUID{locationID}, true)
			if err != nil && !errors.Is(err, scanner.ErrScanAlreadyRunning) {
				log.Printf("[watcher] start scan: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("filesystem watcher failed: %v", err)
		}
		fw.Start()
		defer fw.Stop()
		srv.SetRefresher(fw)
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
