// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const pruneTimeout = time.Minute

// Pruner deletes expired jobs on a cron schedule.
type Pruner struct {
	store     *Store
	retention time.Duration
	cron      *cron.Cron
	logger    *zap.Logger
	now       func() time.Time
}

// NewPruner returns a Pruner that removes jobs older than retention.
func NewPruner(store *Store, retention time.Duration, logger *zap.Logger) *Pruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pruner{
		store:     store,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules pruning. schedule accepts standard five-field cron
// expressions and descriptors such as "@every 1h" or "@daily".
func (p *Pruner) Start(schedule string) error {
	if _, err := p.cron.AddFunc(schedule, p.run); err != nil {
		return fmt.Errorf("parsing prune schedule %q: %w", schedule, err)
	}
	p.cron.Start()
	p.logger.Info("history pruner started",
		zap.String("schedule", schedule),
		zap.Duration("retention", p.retention),
	)
	return nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

// RunNow prunes once, synchronously.
func (p *Pruner) RunNow(ctx context.Context) (int64, error) {
	return p.store.Prune(ctx, p.now().Add(-p.retention))
}

func (p *Pruner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	n, err := p.RunNow(ctx)
	if err != nil {
		p.logger.Error("pruning history", zap.Error(err))
		return
	}
	if n > 0 {
		p.logger.Info("pruned history", zap.Int64("removed", n))
	}
}
