package run

import (
	"context"
	"fmt"
	"time"

	cron "github.com/netresearch/go-cron"
	"go.uber.org/zap"
)

// Reconciler periodically moves the active run to its terminal state once
// the job backing it completed.
type Reconciler struct {
	cron    *cron.Cron
	rs      RunService
	timeout time.Duration
	logger  *zap.Logger
}

func NewReconciler(rs RunService, interval time.Duration, logger *zap.Logger) (*Reconciler, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("reconcile interval %s is below one second", interval)
	}

	r := &Reconciler{
		cron:    cron.New(),
		rs:      rs,
		timeout: interval,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc("@every "+interval.String(), r.tick); err != nil {
		return nil, fmt.Errorf("schedule reconciler: %w", err)
	}
	return r, nil
}

func (r *Reconciler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.rs.Reconcile(ctx); err != nil {
		r.logger.Error("reconcile runs", zap.Error(err))
	}
}

func (r *Reconciler) Start() {
	r.cron.Start()
}

// Stop waits for a running tick to return or ctx to expire.
func (r *Reconciler) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}
