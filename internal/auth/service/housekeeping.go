package service

import (
	"context"
	"log/slog"
	"time"
)

// HousekeepingService periodically removes expired invites and sessions so
// neither store grows without bound.
type HousekeepingService struct {
	Invites  *InviteService
	Sessions *SessionService
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(invites *InviteService, sessions *SessionService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Invites:  invites,
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut the
// worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep performs the deletions. Each sweep is independent so a failure in
// one won't stop the other.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	if n, err := s.Invites.CleanupExpired(ctx); err != nil {
		s.Logger.Error("failed to delete expired invites", "error", err)
	} else if n > 0 {
		s.Logger.Debug("deleted expired invites", "count", n)
	}

	if n, err := s.Sessions.CleanupExpired(ctx); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else if n > 0 {
		s.Logger.Debug("deleted expired sessions", "count", n)
	}
}
