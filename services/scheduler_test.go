package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfl-survivor-go/models"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (r *countingReconciler) Run(ctx context.Context, trigger models.Trigger) (*models.ReconcileReport, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &models.ReconcileReport{Trigger: trigger}, nil
}

func TestNewReconcileSchedulerValidates(t *testing.T) {
	t.Parallel()

	_, err := NewReconcileScheduler(SchedulerConfig{Spec: "not cron"}, &countingReconciler{})
	assert.Error(t, err)

	_, err = NewReconcileScheduler(SchedulerConfig{Spec: "*/5 * * * *", Timezone: "Nowhere/Land"}, &countingReconciler{})
	assert.Error(t, err)

	s, err := NewReconcileScheduler(SchedulerConfig{Spec: "*/5 * * * *", Timezone: "UTC"}, &countingReconciler{})
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestSchedulerTickRunsReconciliation(t *testing.T) {
	t.Parallel()

	rec := &countingReconciler{}
	s, err := NewReconcileScheduler(SchedulerConfig{Spec: "@every 1h"}, rec)
	require.NoError(t, err)

	s.tick()
	assert.Equal(t, int32(1), rec.calls.Load())

	rec.err = errors.New("boom")
	s.tick()
	assert.Equal(t, int32(2), rec.calls.Load())
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	s, err := NewReconcileScheduler(SchedulerConfig{Spec: "@every 1h"}, &countingReconciler{})
	require.NoError(t, err)

	s.Start()
	s.Start() // second start is a no-op

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
