package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/response"
)

type jobSectionService interface {
	Create(ctx context.Context, req dto.CreateJobSectionRequest, actorID int64) (*models.JobSection, error)
	Update(ctx context.Context, id int64, req dto.UpdateJobSectionRequest, actorID int64) (*models.JobSection, error)
	Delete(ctx context.Context, id int64, actorID int64) error
}

// JobSectionHandler exposes section endpoints.
type JobSectionHandler struct {
	service jobSectionService
}

// NewJobSectionHandler constructs a job section handler.
func NewJobSectionHandler(svc jobSectionService) *JobSectionHandler {
	return &JobSectionHandler{service: svc}
}

// Create godoc
// @Summary Create job section
// @Tags Job Sections
// @Accept json
// @Produce json
// @Param payload body dto.CreateJobSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /job-section/create [post]
func (h *JobSectionHandler) Create(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateJobSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid job section payload"))
		return
	}
	section, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "job section created", section)
}

// Update godoc
// @Summary Rename job section
// @Tags Job Sections
// @Accept json
// @Produce json
// @Param id path int true "Section ID"
// @Param payload body dto.UpdateJobSectionRequest true "Section payload"
// @Success 200 {object} response.Envelope
// @Router /job-section/update/{id} [patch]
func (h *JobSectionHandler) Update(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateJobSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid job section payload"))
		return
	}
	section, err := h.service.Update(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "job section updated", section)
}

// Delete godoc
// @Summary Delete job section
// @Tags Job Sections
// @Param id path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /job-section/delete/{id} [delete]
func (h *JobSectionHandler) Delete(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "job section deleted", nil)
}
