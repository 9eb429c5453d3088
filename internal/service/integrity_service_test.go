package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/talentgate/assessment-backend/internal/model"
)

type fakeIntegrityStore struct {
	counts    map[model.IntegrityCategory]int64
	countsErr error
	recent    []model.IntegrityRecord
	recentErr error
	answered  int64
}

func (f fakeIntegrityStore) CountsByCategory(context.Context, uuid.UUID) (map[model.IntegrityCategory]int64, error) {
	return f.counts, f.countsErr
}

func (f fakeIntegrityStore) Recent(context.Context, uuid.UUID, int) ([]model.IntegrityRecord, error) {
	return f.recent, f.recentErr
}

func (f fakeIntegrityStore) AnsweredCount(context.Context, uuid.UUID) (int64, error) {
	return f.answered, nil
}

func TestSnapshot_WarningsExcludeFocusRegained(t *testing.T) {
	svc := NewIntegrityService(fakeIntegrityStore{
		counts: map[model.IntegrityCategory]int64{
			model.IntegrityFocusLost:      3,
			model.IntegrityFocusRegained:  3,
			model.IntegrityBlockedGesture: 2,
		},
		recentErr: errors.New("timeout"),
		answered:  7,
	})

	snap, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Warnings != 5 {
		t.Errorf("warnings = %d, want 5", snap.Warnings)
	}
	if snap.Answered != 7 {
		t.Errorf("answered = %d, want 7", snap.Answered)
	}
	if snap.Recent == nil || len(snap.Recent) != 0 {
		t.Errorf("recent = %v, want empty non-nil slice", snap.Recent)
	}
}

func TestSnapshot_CountsErrorFails(t *testing.T) {
	svc := NewIntegrityService(fakeIntegrityStore{countsErr: errors.New("db down")})

	if _, err := svc.Snapshot(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}
