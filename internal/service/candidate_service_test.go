package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/repository"
)

type memCandidates struct {
	byEmail map[string]*model.Candidate
}

func (m *memCandidates) Create(_ context.Context, c *model.Candidate) error {
	email := strings.ToLower(c.Email)
	if _, ok := m.byEmail[email]; ok {
		return repository.ErrDuplicateEmail
	}
	c.ID = uuid.New()
	c.Email = email
	m.byEmail[email] = c
	return nil
}

func (m *memCandidates) GetByID(_ context.Context, id uuid.UUID) (*model.Candidate, error) {
	for _, c := range m.byEmail {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCandidateNotFound
}

type memResumes struct {
	saved   map[string]string
	deleted []string
}

func (m *memResumes) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saved[name] = string(b)
	return "/uploads/" + name, nil
}

func (m *memResumes) Delete(_ context.Context, name string) error {
	delete(m.saved, name)
	m.deleted = append(m.deleted, name)
	return nil
}

func newCandidateFixture() (*CandidateService, *memCandidates, *memResumes) {
	repo := &memCandidates{byEmail: map[string]*model.Candidate{}}
	resumes := &memResumes{saved: map[string]string{}}
	return NewCandidateService(repo, resumes, 1024, zerolog.Nop()), repo, resumes
}

func resumeHeader(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestRegister(t *testing.T) {
	svc, _, resumes := newCandidateFixture()
	req := model.RegisterCandidateRequest{FullName: " Ada Park ", Email: "Ada@Example.com", TechnologyTrack: "Python"}

	c, err := svc.Register(context.Background(), req, strings.NewReader("%PDF-1.7"), resumeHeader("cv.PDF", 8))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.FullName != "Ada Park" || c.Email != "ada@example.com" {
		t.Errorf("candidate = %+v", c)
	}
	if !strings.HasPrefix(c.ResumeURL, "/uploads/") || !strings.HasSuffix(c.ResumeURL, ".pdf") {
		t.Errorf("resume url = %q", c.ResumeURL)
	}
	if len(resumes.saved) != 1 {
		t.Errorf("saved files = %d, want 1", len(resumes.saved))
	}
}

func TestRegister_RejectsBadUploads(t *testing.T) {
	tests := []struct {
		name   string
		header *multipart.FileHeader
		want   error
	}{
		{"image", resumeHeader("photo.png", 10), ErrUnsupportedFileType},
		{"no extension", resumeHeader("resume", 10), ErrUnsupportedFileType},
		{"too large", resumeHeader("cv.docx", 4096), ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, resumes := newCandidateFixture()
			req := model.RegisterCandidateRequest{FullName: "Ada", Email: "a@b.co", TechnologyTrack: "Go"}
			_, err := svc.Register(context.Background(), req, strings.NewReader("x"), tt.header)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if len(resumes.saved) != 0 {
				t.Error("file was stored for a rejected upload")
			}
		})
	}
}

func TestRegister_DuplicateEmailRemovesResume(t *testing.T) {
	svc, _, resumes := newCandidateFixture()
	req := model.RegisterCandidateRequest{FullName: "Ada", Email: "ada@example.com", TechnologyTrack: "Go"}
	ctx := context.Background()

	if _, err := svc.Register(ctx, req, strings.NewReader("a"), resumeHeader("a.doc", 1)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	req.Email = "ADA@example.com"
	_, err := svc.Register(ctx, req, strings.NewReader("b"), resumeHeader("b.doc", 1))
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("error = %v, want ErrDuplicateEmail", err)
	}
	if len(resumes.deleted) != 1 || len(resumes.saved) != 1 {
		t.Errorf("saved=%d deleted=%d, want 1/1", len(resumes.saved), len(resumes.deleted))
	}
}
