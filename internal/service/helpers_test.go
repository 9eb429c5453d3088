package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/repository"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testConfig() *config.Config {
	return &config.Config{
		AssessmentDuration: 1500 * time.Second,
		ReapplyCooldown:    42 * 24 * time.Hour,
	}
}

// fakeResults serves a fixed latest result, or ErrResultNotFound when nil.
type fakeResults struct {
	latest *model.StoredResult
	err    error
	calls  int
}

func (f *fakeResults) LatestByCandidate(context.Context, uuid.UUID) (*model.StoredResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.latest == nil {
		return nil, repository.ErrResultNotFound
	}
	return f.latest, nil
}
