package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
)

// Reclaimer releases expired holds.
type Reclaimer interface {
	ReclaimExpired(ctx context.Context, now time.Time) (int, error)
}

// Sweeper runs the expiry reclamation on a fixed interval until its context
// is cancelled. Sweep errors are logged, not fatal; the next tick retries.
type Sweeper struct {
	ledger   Reclaimer
	clock    clock.Clock
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(ledger Reclaimer, clk clock.Clock, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		clock:    clk,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

// Run blocks until ctx is cancelled, then returns nil.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			released, err := s.ledger.ReclaimExpired(ctx, s.clock.Now())
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error().Err(err).Msg("reclaim sweep failed")
				continue
			}
			if released > 0 {
				s.logger.Info().Int("released", released).Msg("reclaimed expired holds")
			}
		}
	}
}
