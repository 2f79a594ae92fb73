package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/pkg/logger"
)

const defaultLockKey = "scheduler:scan"

// ScanRunner is the part of the scanner the scheduler drives.
type ScanRunner interface {
	Scan(ctx context.Context, req models.ScanRequest) (models.ScanResult, error)
}

// Scheduler runs periodic scans with the configured defaults. When a
// Locker is set, a tick only runs on the replica that takes the lock.
type Scheduler struct {
	cron    *cron.Cron
	runner  ScanRunner
	locker  domainrepo.Locker
	lockKey string
	lockTTL time.Duration
	timeout time.Duration
	log     *logger.Logger
}

type Option func(*Scheduler)

// WithLocker coordinates ticks across replicas. ttl bounds how long a
// crashed holder blocks the others.
func WithLocker(l domainrepo.Locker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithLockKey(key string) Option {
	return func(s *Scheduler) {
		s.lockKey = key
	}
}

// WithRunTimeout bounds a single scheduled scan.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

func New(runner ScanRunner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:  runner,
		lockKey: defaultLockKey,
		lockTTL: 2 * time.Minute,
		timeout: 2 * time.Minute,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{s.log}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Register adds the scan job on a standard cron spec or descriptor
// ("*/5 * * * *", "@every 5m").
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(context.Background()) }); err != nil {
		return fmt.Errorf("register scan job %q: %w", spec, err)
	}
	s.log.Info("scan job registered", logger.String("schedule", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", logger.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the cron and waits for a running scan, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow executes one scheduled scan synchronously.
func (s *Scheduler) RunNow(ctx context.Context) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, s.lockKey, s.lockTTL)
		if err != nil {
			s.log.Error("scan lock failed", logger.Error(err))
			return
		}
		if !ok {
			s.log.Debug("scan lock held elsewhere, skipping tick")
			return
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), s.lockKey); err != nil {
				s.log.Warn("scan unlock failed", logger.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.runner.Scan(ctx, models.ScanRequest{})
	if err != nil {
		s.log.Error("scheduled scan failed", logger.Error(err))
		return
	}
	fields := []logger.Field{
		logger.Int("signals", len(res.Signals)),
		logger.Int("assets", res.ScannedAssets),
		logger.Duration("took", time.Since(start)),
	}
	if res.Degraded {
		s.log.Warn("scheduled scan degraded", append(fields, logger.String("reason", res.Error))...)
		return
	}
	s.log.Info("scheduled scan done", fields...)
}

// cronLogger routes cron's own logging through the app logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
