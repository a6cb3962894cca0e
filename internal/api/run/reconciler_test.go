package run_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/run"
)

type countingService struct {
	run.RunService
	calls int32
}

func (s *countingService) Reconcile(ctx context.Context) error {
	atomic.AddInt32(&s.calls, 1)
	return nil
}

func TestReconciler(t *testing.T) {
	_, err := run.NewReconciler(&countingService{}, 10*time.Millisecond, zap.NewNop())
	assert.Error(t, err)

	rs := &countingService{}
	r, err := run.NewReconciler(rs, time.Second, zap.NewNop())
	require.NoError(t, err)

	r.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&rs.calls) > 0
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
