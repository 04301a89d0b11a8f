package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/logger"
	"github.com/noah-isme/rab-api/pkg/response"
)

type documentService interface {
	Create(ctx context.Context, req dto.CreateDocumentRequest, actorID int64) (*models.Document, error)
	List(ctx context.Context, query dto.DocumentListQuery, actorID int64) ([]models.Document, error)
	Detail(ctx context.Context, slug string, actorID int64) (*dto.DocumentDetail, error)
	Update(ctx context.Context, id int64, req dto.UpdateDocumentRequest, actorID int64) (*models.Document, error)
	UpdateGeneralInfo(ctx context.Context, slug string, req dto.UpdateGeneralInfoRequest, actorID int64) (*models.Document, error)
	UpdatePercentage(ctx context.Context, slug string, req dto.UpdatePercentageRequest, actorID int64) (*models.Document, error)
	UpdateRecapitulationLocation(ctx context.Context, slug string, req dto.UpdateRecapitulationLocationRequest, actorID int64) (*models.Document, error)
	SubmitForCheck(ctx context.Context, slug string, actorID int64) (*models.Document, error)
	ApproveCheck(ctx context.Context, slug string, actorID int64) (*models.Document, error)
	ApproveConfirm(ctx context.Context, slug string, actorID int64) (*models.Document, error)
	Delete(ctx context.Context, id int64, actorID int64) error
	ExportPDF(ctx context.Context, slug string, actorID int64) ([]byte, string, error)
	Archived(ctx context.Context, slug string, actorID int64) ([]byte, string, error)
	Verify(ctx context.Context, slug string) (*dto.VerificationView, error)
}

// DocumentHandler exposes the document workflow endpoints.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs a document handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Create godoc
// @Summary Create document
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.CreateDocumentRequest true "Document payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /document/create [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid document payload"))
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "document created", doc)
}

// List godoc
// @Summary List documents related to the caller
// @Tags Documents
// @Produce json
// @Param sortBy query string false "asc, desc, recent or least"
// @Param scope query string false "default, review or confirm"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /document/list [get]
func (h *DocumentHandler) List(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.DocumentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid list query"))
		return
	}
	docs, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", docs, map[string]interface{}{"count": len(docs)})
}

// Detail godoc
// @Summary Document detail with totals
// @Tags Documents
// @Produce json
// @Param slug path string true "Document slug"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /document/detail/{slug} [get]
func (h *DocumentHandler) Detail(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.service.Detail(c.Request.Context(), c.Param("slug"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", detail)
}

// Update godoc
// @Summary Update name and reviewers
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param payload body dto.UpdateDocumentRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /document/update/{id} [patch]
func (h *DocumentHandler) Update(c *gin.Context) {
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
	var req dto.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid document payload"))
		return
	}
	doc, err := h.service.Update(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "document updated", doc)
}

// UpdateGeneralInfo godoc
// @Summary Update job, location and base
// @Tags Documents
// @Accept json
// @Produce json
// @Param slug path string true "Document slug"
// @Param payload body dto.UpdateGeneralInfoRequest true "General info"
// @Success 200 {object} response.Envelope
// @Router /document/update/general-info/{slug} [patch]
func (h *DocumentHandler) UpdateGeneralInfo(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateGeneralInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid general info payload"))
		return
	}
	doc, err := h.service.UpdateGeneralInfo(c.Request.Context(), c.Param("slug"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "document updated", doc)
}

// UpdatePercentage godoc
// @Summary Set benefits and risks percentage
// @Tags Documents
// @Accept json
// @Produce json
// @Param slug path string true "Document slug"
// @Param payload body dto.UpdatePercentageRequest true "Percentage"
// @Success 200 {object} response.Envelope
// @Router /document/update/percentage/{slug} [patch]
func (h *DocumentHandler) UpdatePercentage(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdatePercentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid percentage payload"))
		return
	}
	doc, err := h.service.UpdatePercentage(c.Request.Context(), c.Param("slug"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "document updated", doc)
}

// UpdateRecapitulationLocation godoc
// @Summary Set recapitulation location
// @Tags Documents
// @Accept json
// @Produce json
// @Param slug path string true "Document slug"
// @Param payload body dto.UpdateRecapitulationLocationRequest true "Location"
// @Success 200 {object} response.Envelope
// @Router /document/update/recapitulation-location/{slug} [patch]
func (h *DocumentHandler) UpdateRecapitulationLocation(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateRecapitulationLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid recapitulation location payload"))
		return
	}
	doc, err := h.service.UpdateRecapitulationLocation(c.Request.Context(), c.Param("slug"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "document updated", doc)
}

// Submit godoc
// @Summary Submit document for check
// @Tags Documents
// @Produce json
// @Param slug path string true "Document slug"
// @Success 200 {object} response.Envelope
// @Router /document/submit/{slug} [patch]
func (h *DocumentHandler) Submit(c *gin.Context) {
	h.transition(c, "document submitted", h.service.SubmitForCheck)
}

// ApproveCheck godoc
// @Summary Checker approval
// @Tags Documents
// @Produce json
// @Param slug path string true "Document slug"
// @Success 200 {object} response.Envelope
// @Router /document/approve/check/{slug} [patch]
func (h *DocumentHandler) ApproveCheck(c *gin.Context) {
	h.transition(c, "document checked", h.service.ApproveCheck)
}

// ApproveConfirm godoc
// @Summary Confirmer approval
// @Tags Documents
// @Produce json
// @Param slug path string true "Document slug"
// @Success 200 {object} response.Envelope
// @Router /document/approve/confirm/{slug} [patch]
func (h *DocumentHandler) ApproveConfirm(c *gin.Context) {
	h.transition(c, "document approved", h.service.ApproveConfirm)
}

func (h *DocumentHandler) transition(c *gin.Context, message string, fn func(context.Context, string, int64) (*models.Document, error)) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := fn(c.Request.Context(), c.Param("slug"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, message, doc)
}

// Delete godoc
// @Summary Delete document
// @Tags Documents
// @Param id path int true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /document/delete/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
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
	response.OK(c, "document deleted", nil)
}

// DownloadPDF godoc
// @Summary Download document PDF
// @Tags Documents
// @Produce application/pdf
// @Param slug path string true "Document slug"
// @Success 200 {file} file
// @Router /document/download-pdf/{slug} [get]
func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	pdf, filename, err := h.service.ExportPDF(c.Request.Context(), c.Param("slug"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.FromContext(c, nil).Info("document pdf exported", zap.String("slug", c.Param("slug")), zap.Int("bytes", len(pdf)))
	response.Attachment(c, "application/pdf", filename, pdf)
}

// DownloadArchive godoc
// @Summary Download archived PDF of an approved document
// @Tags Documents
// @Produce application/pdf
// @Param slug path string true "Document slug"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /document/archive/{slug} [get]
func (h *DocumentHandler) DownloadArchive(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	pdf, filename, err := h.service.Archived(c.Request.Context(), c.Param("slug"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "application/pdf", filename, pdf)
}

// Verify godoc
// @Summary Public verification view of an approved document
// @Tags Verification
// @Produce json
// @Param slug path string true "Document slug"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /document/verify/{slug} [get]
func (h *DocumentHandler) Verify(c *gin.Context) {
	view, err := h.service.Verify(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "document verified", view)
}
