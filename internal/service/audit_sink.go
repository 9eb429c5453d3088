package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/metrics"
	"github.com/talentgate/assessment-backend/internal/model"
)

// RedisAuditSink queues integrity records for persistence and publishes them
// to the candidate's live channel.
type RedisAuditSink struct {
	rdb *redis.Client
}

// NewRedisAuditSink creates a new RedisAuditSink.
func NewRedisAuditSink(rdb *redis.Client) *RedisAuditSink {
	return &RedisAuditSink{rdb: rdb}
}

func (s *RedisAuditSink) LogEvent(ctx context.Context, rec model.IntegrityRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal integrity record: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistIntegrityQueue, data)
	pipe.Publish(ctx, config.CacheKey.CandidateIntegrityChannel(rec.CandidateID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue integrity record: %w", err)
	}

	metrics.IntegrityEvents.WithLabelValues(string(rec.Category)).Inc()
	return nil
}
