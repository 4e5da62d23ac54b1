package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
	"github.com/reeezaw1/rzarmndrv01/internal/store"
)

// Notifier is the minimal interface the scheduler needs to deliver one
// reminder. telegram.Router implements it.
type Notifier interface {
	Notify(chatID int64, taskName, description string) error
}

// Scheduler drives the periodic due-check pass: load active reminders,
// evaluate each against its rule, notify the due ones, complete one-offs.
type Scheduler struct {
	repo     store.Repo
	log      *zap.Logger
	notifier Notifier
	interval time.Duration
	workers  int
}

// New creates a Scheduler ticking at the given interval.
func New(repo store.Repo, log *zap.Logger, notifier Notifier, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		repo:     repo,
		log:      log,
		notifier: notifier,
		interval: interval,
		workers:  8,
	}
}

// Run starts the loop until ctx is canceled. The pass runs inline in the
// select loop, so two passes never overlap; if a pass outlasts the period
// the ticker simply drops the intermediate ticks.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx, time.Now().UTC())
		}
	}
}

// tick performs one due-check pass at the given instant. Reminders are
// independent, so they are evaluated concurrently under a bounded
// semaphore; any single reminder failing never aborts the batch.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	reminders, err := s.repo.ListActiveReminders(ctx)
	if err != nil {
		s.log.Error("list active reminders failed", zap.Error(err))
		return
	}
	if len(reminders) == 0 {
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)
	for i := range reminders {
		r := &reminders[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.process(ctx, r, now)
		}()
	}
	wg.Wait()
}

// process evaluates and, when due, delivers a single reminder.
func (s *Scheduler) process(ctx context.Context, r *domain.Reminder, now time.Time) {
	due, err := domain.IsDue(r, now)
	if err != nil {
		// Broken payload or zone: skip this tick, the row stays active.
		s.log.Warn("reminder evaluation failed",
			zap.Int64("reminder_id", r.ID),
			zap.String("schedule_type", string(r.ScheduleType)),
			zap.Error(err),
		)
		return
	}
	if !due {
		return
	}

	if err := s.notifier.Notify(r.UserID, r.TaskName, r.Description); err != nil {
		// Status is not advanced, so a once reminder retries next tick.
		s.log.Warn("notify failed",
			zap.Int64("reminder_id", r.ID),
			zap.Int64("chat_id", r.UserID),
			zap.Error(err),
		)
		return
	}
	s.log.Info("reminder sent",
		zap.Int64("reminder_id", r.ID),
		zap.Int64("chat_id", r.UserID),
		zap.String("schedule_type", string(r.ScheduleType)),
	)

	if r.ScheduleType == domain.ScheduleOnce {
		if err := s.repo.UpdateReminderStatus(ctx, r.ID, domain.StatusCompleted); err != nil {
			s.log.Error("complete reminder failed",
				zap.Int64("reminder_id", r.ID),
				zap.Error(err),
			)
		}
	}
}
