// Package scheduler runs the recurring maintenance jobs of the progression
// core, currently the midnight re-opening of completed daily quests.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/solotasks/progression/pkg/repository"
)

// DailyResetScheduler re-opens completed daily quests at midnight UTC so they
// can be completed again the next day. Chains are excluded; a dungeon run is
// a one-shot.
type DailyResetScheduler struct {
	quests repository.QuestRepository
	logger *slog.Logger
	sched  gocron.Scheduler
}

// NewDailyResetScheduler creates the scheduler. Call Start to begin running.
func NewDailyResetScheduler(quests repository.QuestRepository, logger *slog.Logger) (*DailyResetScheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &DailyResetScheduler{
		quests: quests,
		logger: logger,
		sched:  sched,
	}, nil
}

// Start registers the midnight job and begins running. The job fires at
// 00:00 UTC every day.
func (s *DailyResetScheduler) Start() error {
	_, err := s.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(s.runReset),
	)
	if err != nil {
		return fmt.Errorf("failed to register daily reset job: %w", err)
	}

	s.sched.Start()
	s.logger.Info("daily reset scheduler started")
	return nil
}

// RunNow executes the reset immediately, outside the schedule. Used by
// operational tooling and tests.
func (s *DailyResetScheduler) RunNow(ctx context.Context) (int, error) {
	return s.quests.ResetDailyQuests(ctx)
}

func (s *DailyResetScheduler) runReset() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reset, err := s.quests.ResetDailyQuests(ctx)
	if err != nil {
		s.logger.Error("daily quest reset failed", "error", err)
		return
	}

	s.logger.Info("daily quests reset", "count", reset)
}

// Shutdown stops the scheduler and waits for a running job to finish.
func (s *DailyResetScheduler) Shutdown() error {
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	s.logger.Info("daily reset scheduler stopped")
	return nil
}
