package model

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is a registered applicant.
type Candidate struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	TechnologyTrack string    `json:"technology_track"`
	ResumeURL       string    `json:"resume_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// RegisterCandidateRequest is the form payload for candidate intake.
// The resume file travels as a separate multipart part.
type RegisterCandidateRequest struct {
	FullName        string `form:"full_name" json:"full_name" binding:"required,min=2,max=120"`
	Email           string `form:"email" json:"email" binding:"required,email,max=254"`
	TechnologyTrack string `form:"technology_track" json:"technology_track" binding:"required,max=60,techtrack"`
}
