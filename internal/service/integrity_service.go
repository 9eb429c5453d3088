package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/talentgate/assessment-backend/internal/model"
)

// recentLimit caps the event list in a snapshot.
const recentLimit = 50

type integrityStore interface {
	CountsByCategory(ctx context.Context, candidateID uuid.UUID) (map[model.IntegrityCategory]int64, error)
	Recent(ctx context.Context, candidateID uuid.UUID, limit int) ([]model.IntegrityRecord, error)
	AnsweredCount(ctx context.Context, candidateID uuid.UUID) (int64, error)
}

// IntegrityService builds integrity reports for reviewers.
type IntegrityService struct {
	repo integrityStore
}

// NewIntegrityService creates a new IntegrityService.
func NewIntegrityService(repo integrityStore) *IntegrityService {
	return &IntegrityService{repo: repo}
}

// IntegritySnapshot summarises a candidate's recorded integrity events.
type IntegritySnapshot struct {
	CandidateID string                            `json:"candidate_id"`
	Counts      map[model.IntegrityCategory]int64 `json:"counts"`
	Warnings    int64                             `json:"warnings"`
	Answered    int64                             `json:"answered"`
	Recent      []model.IntegrityRecord           `json:"recent"`
}

// Snapshot fetches counts, recent events and live progress concurrently.
// Counts are required; the other two are best-effort.
func (s *IntegrityService) Snapshot(ctx context.Context, candidateID uuid.UUID) (*IntegritySnapshot, error) {
	var (
		counts    map[model.IntegrityCategory]int64
		recent    []model.IntegrityRecord
		answered  int64
		countsErr error
		recentErr error
		ansErr    error
		wg        sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		counts, countsErr = s.repo.CountsByCategory(ctx, candidateID)
	}()
	go func() {
		defer wg.Done()
		recent, recentErr = s.repo.Recent(ctx, candidateID, recentLimit)
	}()
	go func() {
		defer wg.Done()
		answered, ansErr = s.repo.AnsweredCount(ctx, candidateID)
	}()
	wg.Wait()

	if countsErr != nil {
		return nil, countsErr
	}

	snap := &IntegritySnapshot{
		CandidateID: candidateID.String(),
		Counts:      counts,
		Recent:      []model.IntegrityRecord{},
	}
	if snap.Counts == nil {
		snap.Counts = map[model.IntegrityCategory]int64{}
	}
	for cat, n := range snap.Counts {
		if cat != model.IntegrityFocusRegained {
			snap.Warnings += n
		}
	}
	if recentErr == nil && recent != nil {
		snap.Recent = recent
	}
	if ansErr == nil {
		snap.Answered = answered
	}
	return snap, nil
}
