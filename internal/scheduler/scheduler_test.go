package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TraderGenie/internal/domain/models"
	"TraderGenie/pkg/logger"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
	reqs  []models.ScanRequest
	res   models.ScanResult
	err   error
}

func (r *countingRunner) Scan(_ context.Context, req models.ScanRequest) (models.ScanResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.reqs = append(r.reqs, req)
	return r.res, r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeLocker struct {
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(context.Context, string) error {
	l.held = false
	l.unlocked++
	return nil
}

func TestRunNow_UsesDefaults(t *testing.T) {
	r := &countingRunner{res: models.ScanResult{Signals: make([]models.Signal, 2), ScannedAssets: 10}}
	s := New(r)

	s.RunNow(context.Background())

	require.Equal(t, 1, r.count())
	assert.Nil(t, r.reqs[0].MinConfidence)
	assert.Nil(t, r.reqs[0].Limit)
	assert.Empty(t, r.reqs[0].StrategyIDs)
}

func TestRunNow_SkipsWhenLockHeld(t *testing.T) {
	r := &countingRunner{}
	lock := &fakeLocker{held: true}
	s := New(r, WithLocker(lock, time.Minute))

	s.RunNow(context.Background())
	assert.Equal(t, 0, r.count())

	lock.held = false
	s.RunNow(context.Background())
	assert.Equal(t, 1, r.count())
	assert.Equal(t, 1, lock.unlocked)
	assert.False(t, lock.held)
}

func TestRunNow_LockErrorSkips(t *testing.T) {
	var buf bytes.Buffer
	r := &countingRunner{}
	s := New(r, WithLocker(&fakeLocker{err: errors.New("redis down")}, 0), WithLogger(logger.NewWithWriter(&buf)))

	s.RunNow(context.Background())

	assert.Equal(t, 0, r.count())
	assert.Contains(t, buf.String(), "scan lock failed")
}

func TestRunNow_LogsFailureAndDegraded(t *testing.T) {
	var buf bytes.Buffer
	r := &countingRunner{err: errors.New("catalog unavailable")}
	s := New(r, WithLogger(logger.NewWithWriter(&buf)))

	s.RunNow(context.Background())
	assert.Contains(t, buf.String(), "scheduled scan failed")

	r.err = nil
	r.res = models.ScanResult{Degraded: true, Error: "upstream unavailable"}
	s.RunNow(context.Background())
	assert.Contains(t, buf.String(), "scheduled scan degraded")
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	s := New(&countingRunner{})
	assert.Error(t, s.Register("every now and then"))
	assert.NoError(t, s.Register("@every 1h"))
	assert.NoError(t, s.Register("*/5 * * * *"))
}

func TestStartStop(t *testing.T) {
	r := &countingRunner{}
	s := New(r)
	require.NoError(t, s.Register("@every 1h"))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.Equal(t, 0, r.count())
}
