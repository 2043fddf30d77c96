package sweeper

import (
	"context"
	"time"

	"github.com/lomoval/murinahi/internal/storage"
	log "github.com/sirupsen/logrus"
)

const sweepTimeout = time.Minute

// Sweeper periodically deletes expired records from stores that keep them until compacted.
type Sweeper struct {
	target   storage.Sweeper
	interval time.Duration
	now      func() time.Time
}

func New(target storage.Sweeper, interval time.Duration) *Sweeper {
	return &Sweeper{target: target, interval: interval, now: time.Now}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Errorf("failed to remove expired records: %v", err)
			}
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	removed, err := s.target.RemoveExpired(ctx, s.now())
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		log.WithField("removed", removed).Info("expired records removed")
	} else {
		log.Debug("no expired records")
	}
	return removed, nil
}
