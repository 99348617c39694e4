package services

import (
	"context"
	"time"

	"cashflow/internal/logging"
	"cashflow/internal/repository"
)

// ResetCodePurger periodically removes recovery codes that expired more
// than the retention window ago.
type ResetCodePurger struct {
	codes     repository.ResetCodeRepository
	retention time.Duration
	interval  time.Duration
	log       logging.Logger
	now       func() time.Time
}

func NewResetCodePurger(codes repository.ResetCodeRepository, retention, interval time.Duration, log logging.Logger) *ResetCodePurger {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &ResetCodePurger{
		codes:     codes,
		retention: retention,
		interval:  interval,
		log:       log.With("component", "reset_code_purger"),
		now:       time.Now,
	}
}

// PurgeOnce deletes codes that expired before now minus the retention window.
func (p *ResetCodePurger) PurgeOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().UTC().Add(-p.retention)
	n, err := p.codes.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.log.Info(ctx, "purged expired reset codes", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// Run purges once immediately and then on every tick until ctx is done.
func (p *ResetCodePurger) Run(ctx context.Context) {
	p.log.Info(ctx, "reset code purge job started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.PurgeOnce(ctx); err != nil && ctx.Err() == nil {
			p.log.Error(ctx, "failed to purge expired reset codes", "err", err)
		}

		select {
		case <-ctx.Done():
			p.log.Info(context.Background(), "reset code purge job stopped")
			return
		case <-ticker.C:
		}
	}
}
