// Package sweeper runs the periodic batch that expires overdue tasks.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/fieldstone/task-tracker-api/internal/repository"
)

// Sweeper transitions overdue open tasks to expired on a fixed schedule.
type Sweeper struct {
	taskRepo repository.TaskRepository
	interval time.Duration
}

// New creates a Sweeper with the given cadence.
func New(taskRepo repository.TaskRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		taskRepo: taskRepo,
		interval: interval,
	}
}

// Run sweeps immediately, then on every tick until the context is cancelled.
// A failed sweep is logged and retried at the next tick; it never takes the
// process down.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiration sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	expired, err := s.taskRepo.ExpireOverdue(time.Now())
	if err != nil {
		log.Printf("Expiration sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Expiration sweep marked %d task(s) expired", expired)
	}
}
