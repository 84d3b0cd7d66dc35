// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/logger"
)

// Purger removes expired one-time codes and abandoned signups.
type Purger interface {
	PurgeExpired(ctx context.Context) (cleared, deleted int64, err error)
}

// SessionPurger is implemented by purgers that also clean up dead refresh
// tokens; the sweep calls it when available.
type SessionPurger interface {
	PurgeSessions(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	purger Purger
	logger *logger.Logger
}

// New registers the OTP sweep under spec (standard five-field cron or a
// descriptor such as "@every 1m").
func New(spec string, purger Purger, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		purger: purger,
		logger: log,
	}
	if _, err := s.cron.AddFunc(spec, s.PurgeOnce); err != nil {
		return nil, fmt.Errorf("otp purge schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// PurgeOnce runs the OTP sweep immediately.
func (s *Scheduler) PurgeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	start := time.Now()
	cleared, deleted, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("otp purge failed", zap.Error(err))
	} else if cleared > 0 || deleted > 0 {
		s.logger.Info("otp purge",
			zap.Int64("codes_cleared", cleared),
			zap.Int64("accounts_deleted", deleted),
			zap.Duration("took", time.Since(start)),
		)
	}

	sp, ok := s.purger.(SessionPurger)
	if !ok {
		return
	}
	if n, err := sp.PurgeSessions(ctx); err != nil {
		s.logger.Error("session purge failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("session purge", zap.Int64("tokens_deleted", n))
	}
}
