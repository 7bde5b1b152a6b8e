package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/logging"
)

// WhitelistSweeper removes expired whitelist entries.
type WhitelistSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Sweeper runs a WhitelistSweeper on a fixed interval until stopped.
type Sweeper struct {
	target   WhitelistSweeper
	interval time.Duration
	logger   logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweeper(target WhitelistSweeper, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{target: target, interval: interval, logger: logger.With("module", "sweeper")}
}

// Start launches Run in a goroutine. Stop cancels it and waits.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx)
	}()
}

func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Run sweeps once per interval until ctx is done. Errors are logged and
// the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.target.Sweep(ctx)
			if err != nil {
				s.logger.Error(ctx, "whitelist sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "whitelist swept", "removed", n)
			}
		}
	}
}
