package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/storage"
)

// Sentinel errors for resume uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed resume extensions and the content type stored with each.
var allowedResumeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type candidateStore interface {
	Create(ctx context.Context, c *model.Candidate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
}

// CandidateService handles candidate intake.
type CandidateService struct {
	repo     candidateStore
	resumes  storage.ResumeStore
	maxBytes int64
	log      zerolog.Logger
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(repo candidateStore, resumes storage.ResumeStore, maxBytes int64, log zerolog.Logger) *CandidateService {
	return &CandidateService{
		repo:     repo,
		resumes:  resumes,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "candidate_service").Logger(),
	}
}

// Register stores the resume and creates the candidate. The stored file is
// removed again if the candidate row cannot be created.
func (s *CandidateService) Register(ctx context.Context, req model.RegisterCandidateRequest, file io.Reader, header *multipart.FileHeader) (*model.Candidate, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedResumeTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (allowed: .pdf, .doc, .docx)", ErrUnsupportedFileType, ext)
	}
	if header.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.maxBytes)
	}

	name := uuid.NewString() + ext
	url, err := s.resumes.Save(ctx, name, file, header.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("save resume: %w", err)
	}

	c := &model.Candidate{
		FullName:        strings.TrimSpace(req.FullName),
		Email:           strings.TrimSpace(req.Email),
		TechnologyTrack: strings.TrimSpace(req.TechnologyTrack),
		ResumeURL:       url,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if derr := s.resumes.Delete(context.WithoutCancel(ctx), name); derr != nil {
			s.log.Warn().Err(derr).Str("file", name).Msg("Failed to remove orphaned resume")
		}
		return nil, err
	}

	s.log.Info().Str("candidate_id", c.ID.String()).Str("track", c.TechnologyTrack).Msg("Candidate registered")
	return c, nil
}

// Get returns a candidate by ID.
func (s *CandidateService) Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	return s.repo.GetByID(ctx, id)
}
