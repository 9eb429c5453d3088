package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
)

const testCandidate = "7b0a3c52-9d55-4a8e-8f0e-3f4c2f1d9a10"

func TestAcquire_SecondSessionIsRejected(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewSessionStateService(rdb, testConfig(), zerolog.Nop())
	ctx := context.Background()

	lease, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := svc.Acquire(ctx, testCandidate); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second acquire error = %v, want ErrSessionActive", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if again.SessionID != lease.SessionID {
		t.Errorf("session id changed across reconnect: %q -> %q", lease.SessionID, again.SessionID)
	}
}

func TestRelease_DoesNotFreeSomeoneElsesLock(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := NewSessionStateService(rdb, testConfig(), zerolog.Nop())
	ctx := context.Background()

	lease, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	key := config.CacheKey.CandidateSessionLockKey(testCandidate)
	mr.Set(key, "other-token")

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got, _ := mr.Get(key); got != "other-token" {
		t.Errorf("lock value = %q, want other-token untouched", got)
	}
}

func TestAcquire_ResumesElapsedAndAnswers(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewSessionStateService(rdb, testConfig(), zerolog.Nop())
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	first, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if first.ElapsedSeconds != 0 || len(first.Answers) != 0 {
		t.Fatalf("fresh lease = %+v, want zero elapsed and no answers", first)
	}
	if err := svc.MarkStarted(ctx, testCandidate); err != nil {
		t.Fatalf("mark started: %v", err)
	}
	if err := svc.SaveAnswer(ctx, testCandidate, "tech-py-01", "B"); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	if err := svc.SaveAnswer(ctx, testCandidate, "apt-02", "D"); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	_ = first.Release(ctx)

	svc.now = func() time.Time { return start.Add(7*time.Minute + 30*time.Second) }
	second, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if second.ElapsedSeconds != 450 {
		t.Errorf("elapsed = %d, want 450", second.ElapsedSeconds)
	}
	if second.Answers["tech-py-01"] != "B" || second.Answers["apt-02"] != "D" {
		t.Errorf("answers = %v", second.Answers)
	}
}

func TestSaveAnswer_LastWriteWins(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewSessionStateService(rdb, testConfig(), zerolog.Nop())
	ctx := context.Background()

	for _, k := range []string{"A", "C"} {
		if err := svc.SaveAnswer(ctx, testCandidate, "rsn-03", k); err != nil {
			t.Fatalf("save answer: %v", err)
		}
	}
	got, err := rdb.HGet(ctx, config.CacheKey.CandidateAnswersKey(testCandidate), "rsn-03").Result()
	if err != nil {
		t.Fatalf("hget: %v", err)
	}
	if got != "C" {
		t.Errorf("answer = %q, want C", got)
	}
}

func TestAcquire_ClockWaitsForMarkStarted(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewSessionStateService(rdb, testConfig(), zerolog.Nop())
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	// A connection that never got its questions leaves no start time behind.
	first, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	_ = first.Release(ctx)

	svc.now = func() time.Time { return start.Add(4 * time.Minute) }
	second, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if second.ElapsedSeconds != 0 {
		t.Fatalf("elapsed = %d, want 0 before the clock started", second.ElapsedSeconds)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session id changed: %q -> %q", first.SessionID, second.SessionID)
	}
	if err := svc.MarkStarted(ctx, testCandidate); err != nil {
		t.Fatalf("mark started: %v", err)
	}
	_ = second.Release(ctx)

	// A second MarkStarted keeps the original start.
	svc.now = func() time.Time { return start.Add(5 * time.Minute) }
	if err := svc.MarkStarted(ctx, testCandidate); err != nil {
		t.Fatalf("mark started again: %v", err)
	}
	svc.now = func() time.Time { return start.Add(6 * time.Minute) }
	third, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("third acquire: %v", err)
	}
	if third.ElapsedSeconds != 120 {
		t.Errorf("elapsed = %d, want 120", third.ElapsedSeconds)
	}
}

func TestAcquire_RefusesAfterFailedSubmission(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := NewSessionStateService(rdb, testConfig(), zerolog.Nop())
	ctx := context.Background()

	lease, err := svc.Acquire(ctx, testCandidate)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if failed, err := svc.SubmissionFailed(ctx, testCandidate); err != nil || failed {
		t.Fatalf("SubmissionFailed = %v, %v before marking", failed, err)
	}
	if err := svc.MarkFailed(ctx, testCandidate, lease.SessionID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	_ = lease.Release(ctx)

	if _, err := svc.Acquire(ctx, testCandidate); !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("acquire error = %v, want ErrSubmissionFailed", err)
	}
	key := config.CacheKey.CandidateSubmissionFailedKey(testCandidate)
	if got, _ := mr.Get(key); got != lease.SessionID {
		t.Errorf("marker = %q, want session id %q", got, lease.SessionID)
	}
	if ttl := mr.TTL(key); ttl != 42*24*time.Hour {
		t.Errorf("marker ttl = %v, want the reapply cooldown", ttl)
	}
}
