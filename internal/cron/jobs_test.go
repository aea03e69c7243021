package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/attestly/poa-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

type stubSweeper struct {
	batches []int
	calls   int
	err     error
}

func (s *stubSweeper) SweepExpired(ctx context.Context, asOf time.Time, limit int) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.calls >= len(s.batches) {
		return 0, nil
	}
	swept := s.batches[s.calls]
	s.calls++
	return swept, nil
}

func TestExpirationJobDrainsFullBatches(t *testing.T) {
	sweeper := &stubSweeper{batches: []int{100, 100, 40}}
	job, err := NewExpirationJob(ExpirationJobParams{Logger: testLogger(), Lifecycle: sweeper, BatchSize: 100})
	if err != nil {
		t.Fatalf("NewExpirationJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.calls != 3 {
		t.Fatalf("expected 3 sweep batches, got %d", sweeper.calls)
	}
}

func TestExpirationJobPropagatesErrors(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	job, _ := NewExpirationJob(ExpirationJobParams{Logger: testLogger(), Lifecycle: sweeper})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error")
	}
}

type stubRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestOutboxRetentionUsesConfiguredWindow(t *testing.T) {
	repo := &stubRetentionRepo{deleted: 12}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger(), Repository: repo, Retention: 7})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}

	before := time.Now().UTC().Add(-7 * 24 * time.Hour)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.cutoff.After(before.Add(time.Minute)) || repo.cutoff.Before(before.Add(-time.Minute)) {
		t.Fatalf("cutoff %v not near expected %v", repo.cutoff, before)
	}
}

type stubLock struct {
	acquired bool
	released int
}

func (s *stubLock) Acquire(ctx context.Context) (bool, error) { return s.acquired, nil }

func (s *stubLock) Release(ctx context.Context) error {
	s.released++
	return nil
}

type countingJob struct {
	runs int
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return nil
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &countingJob{}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &stubLock{acquired: false},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run without the lock, ran %d times", job.runs)
	}
}

func TestServiceRunsJobsAndReleasesLock(t *testing.T) {
	job := &countingJob{}
	lock := &stubLock{acquired: true}
	svc, _ := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected 1 run, got %d", job.runs)
	}
	if lock.released != 1 {
		t.Fatalf("expected lock release, got %d", lock.released)
	}
}
