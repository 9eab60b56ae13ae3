package scheduler

import (
	"context"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/notification"
	"go.uber.org/zap"
)

// Scheduler drives the daily notification batch and digest. Overlapping runs
// (a slow batch meeting the next tick, or two processes racing) are tolerated
// by the notification dedup keys, so no run-level mutual exclusion is needed.
type Scheduler struct {
	engine   *notification.Engine
	sender   notification.DigestSender
	interval time.Duration
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(engine *notification.Engine, sender notification.DigestSender, interval time.Duration, log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		engine:   engine,
		sender:   sender,
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the timer goroutine. The first batch runs immediately so a
// freshly deployed process does not wait a full interval.
func (s *Scheduler) Start() {
	s.log.Info("starting notification scheduler", zap.Duration("interval", s.interval))

	go func() {
		s.runOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

// Stop cancels the timer goroutine.
func (s *Scheduler) Stop() {
	s.log.Info("stopping notification scheduler")
	s.cancel()
}

func (s *Scheduler) runOnce() {
	result := s.engine.RunAllExpiryChecks(s.ctx)

	total := 0
	for _, n := range result.Created {
		total += n
	}
	s.log.Info("expiry batch finished",
		zap.Int("notifications_created", total),
		zap.Int("failed_scans", len(result.Failures)),
		zap.Any("failures", result.FailureMessages()))

	if s.sender == nil {
		return
	}
	if _, err := s.engine.RunDailyDigest(s.ctx, s.sender); err != nil {
		s.log.Error("daily digest failed", zap.Error(err))
	}
}
