package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidatePaperKey returns the cache key for the question paper dealt to a candidate
func (r *CacheKeyStruct) CandidatePaperKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:paper", candidateID)
}

// CandidateSessionLockKey returns the key guarding a candidate's single live session
func (r *CacheKeyStruct) CandidateSessionLockKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:session_lock", candidateID)
}

// CandidateSessionStartKey returns the cache key for when a candidate's session first started
func (r *CacheKeyStruct) CandidateSessionStartKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:session_start", candidateID)
}

// CandidateSessionIDKey returns the cache key holding a candidate's session ID
func (r *CacheKeyStruct) CandidateSessionIDKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:session_id", candidateID)
}

// CandidateAnswersKey returns the cache key for a candidate's in-progress answers
func (r *CacheKeyStruct) CandidateAnswersKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:answers", candidateID)
}

// CandidateResultKey returns the cache key for a candidate's handed-off result
func (r *CacheKeyStruct) CandidateResultKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:result", candidateID)
}

// CandidateSubmissionFailedKey returns the key marking a candidate whose submission failed
func (r *CacheKeyStruct) CandidateSubmissionFailedKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:submission_failed", candidateID)
}

// CandidateIntegrityChannel returns the Redis PubSub channel for a candidate's integrity events
func (r *CacheKeyStruct) CandidateIntegrityChannel(candidateID string) string {
	return fmt.Sprintf("candidate:%s:integrity", candidateID)
}

var CacheKey = NewCacheKeyStruct()
