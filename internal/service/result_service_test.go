package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
)

func TestResultStore_ClearsLiveStateAndQueues(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := NewResultService(rdb, &fakeResults{}, zerolog.Nop())
	ctx := context.Background()

	for _, key := range []string{
		config.CacheKey.CandidatePaperKey(testCandidate),
		config.CacheKey.CandidateSessionStartKey(testCandidate),
		config.CacheKey.CandidateSessionIDKey(testCandidate),
	} {
		_ = mr.Set(key, "x")
	}
	mr.HSet(config.CacheKey.CandidateAnswersKey(testCandidate), "q1", "A")

	res := &model.SubmissionResult{
		CandidateID:    testCandidate,
		SessionID:      uuid.NewString(),
		Status:         model.ResultPass,
		Score:          82,
		Answers:        map[string]string{"q1": "A"},
		ElapsedSeconds: 640,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := svc.Store(ctx, res); err != nil {
		t.Fatalf("store: %v", err)
	}

	if mr.Exists(config.CacheKey.CandidatePaperKey(testCandidate)) {
		t.Error("paper key survived submission")
	}
	if mr.Exists(config.CacheKey.CandidateAnswersKey(testCandidate)) {
		t.Error("answers key survived submission")
	}
	if n, _ := rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result(); n != 1 {
		t.Errorf("results queue length = %d, want 1", n)
	}
	if n, _ := rdb.LLen(ctx, config.WorkerKey.NotifyResultsQueue).Result(); n != 1 {
		t.Errorf("notify queue length = %d, want 1", n)
	}
	if ttl := mr.TTL(config.CacheKey.CandidateResultKey(testCandidate)); ttl != ResultTTL {
		t.Errorf("result ttl = %v, want %v", ttl, ResultTTL)
	}

	got, err := svc.Get(ctx, uuid.MustParse(testCandidate))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.ResultPass || got.Score != 82 || got.Answers["q1"] != "A" {
		t.Errorf("get = %+v", got)
	}
}

func TestResultGet_FallsBackToDatabaseAndRecaches(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cid := uuid.MustParse(testCandidate)
	repo := &fakeResults{latest: &model.StoredResult{
		CandidateID:    cid,
		SessionID:      uuid.New(),
		Status:         model.ResultReview,
		Score:          55,
		Answers:        map[string]string{"q1": "B", "q2": "C"},
		AnswerCount:    2,
		ElapsedSeconds: 1100,
		CreatedAt:      time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}}
	svc := NewResultService(rdb, repo, zerolog.Nop())
	ctx := context.Background()

	got, err := svc.Get(ctx, cid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.ResultReview || got.ElapsedSeconds != 1100 {
		t.Errorf("get = %+v", got)
	}
	if len(got.Answers) != 2 || got.Answers["q2"] != "C" {
		t.Errorf("answers = %v, want the stored answers", got.Answers)
	}
	if !mr.Exists(config.CacheKey.CandidateResultKey(testCandidate)) {
		t.Fatal("result was not re-cached")
	}

	if _, err := svc.Get(ctx, cid); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("repository calls = %d, want 1", repo.calls)
	}
}

func TestResultGet_NotFound(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewResultService(rdb, &fakeResults{}, zerolog.Nop())

	_, err := svc.Get(context.Background(), uuid.New())
	if !IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}
