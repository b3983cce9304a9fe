package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"talentgate/services/invitations"
	"talentgate/services/sessions"
)

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = 10 * time.Minute

// Service runs the periodic maintenance sweep: expiring overdue invitations
// and pruning expired sessions. Lazy expiry-on-resolve remains authoritative;
// the sweep only makes listings converge without waiting for a read.
type Service struct {
	invitations *invitations.Service
	sessions    *sessions.Service
	interval    time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a scheduler service.
func NewService(invitationsSvc *invitations.Service, sessionsSvc *sessions.Service, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Service{
		invitations: invitationsSvc,
		sessions:    sessionsSvc,
		interval:    interval,
	}
}

// Start begins the background sweep loop.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Sweep runs one maintenance pass immediately.
func (s *Service) Sweep() {
	s.sweep()
}

func (s *Service) sweep() {
	expired, err := s.invitations.ExpireOverdue()
	if err != nil {
		log.Printf("scheduler: expire overdue invitations: %v", err)
	} else if expired > 0 {
		log.Printf("scheduler: expired %d overdue invitation(s)", expired)
	}

	if pruned := s.sessions.CleanupExpired(); pruned > 0 {
		log.Printf("scheduler: pruned %d expired session(s)", pruned)
	}
}
