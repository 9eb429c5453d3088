package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/repository"
	"github.com/talentgate/assessment-backend/internal/response"
	"github.com/talentgate/assessment-backend/internal/service"
	"github.com/talentgate/assessment-backend/internal/validator"
)

// CandidateHandler handles candidate intake and lookup.
type CandidateHandler struct {
	candidateService *service.CandidateService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidateService *service.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: candidateService}
}

// Register godoc
// POST /api/v1/candidates
// Multipart form: full_name, email, technology_track, resume.
func (h *CandidateHandler) Register(c *gin.Context) {
	var req model.RegisterCandidateRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	candidate, err := h.candidateService.Register(c.Request.Context(), req, file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		case errors.Is(err, repository.ErrDuplicateEmail):
			response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, candidate)
}

// Get godoc
// GET /api/v1/candidates/:id
func (h *CandidateHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	candidate, err := h.candidateService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrCandidateNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, candidate)
}
