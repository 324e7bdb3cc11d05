package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
)

// blockingRunner counts runs and optionally blocks until released
type blockingRunner struct {
	runs    atomic.Int32
	release chan struct{}
}

func (r *blockingRunner) RunBatch(ctx context.Context) error {
	r.runs.Add(1)
	if r.release != nil {
		<-r.release
	}
	return nil
}

func TestScheduler_RunsBatches(t *testing.T) {
	runner := &blockingRunner{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	scheduler := NewScheduler(runner, 20*time.Millisecond, metrics, zap.NewNop())

	scheduler.Start(context.Background())
	time.Sleep(70 * time.Millisecond)
	scheduler.Stop()

	// one immediate run plus at least one tick
	assert.GreaterOrEqual(t, runner.runs.Load(), int32(2))
}

func TestScheduler_SkipsTicksWhileBatchRunning(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	scheduler := NewScheduler(runner, 10*time.Millisecond, metrics, zap.NewNop())

	scheduler.Start(context.Background())
	time.Sleep(55 * time.Millisecond)

	assert.Equal(t, int32(1), runner.runs.Load())
	assert.Greater(t, testutil.ToFloat64(metrics.SkippedTicks), 0.0)

	close(runner.release)
	scheduler.Stop()
}

func TestScheduler_StopWaitsForInFlightBatch(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	scheduler := NewScheduler(runner, time.Hour, metrics, zap.NewNop())

	scheduler.Start(context.Background())

	// wait for the immediate batch to start
	for runner.runs.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a batch was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(runner.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the batch finished")
	}
}
