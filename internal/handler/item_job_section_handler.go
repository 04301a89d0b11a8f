package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/response"
)

type itemJobSectionService interface {
	Create(ctx context.Context, req dto.CreateItemJobSectionRequest, actorID int64) (*models.ItemJobSection, error)
	Update(ctx context.Context, id int64, req dto.UpdateItemJobSectionRequest, actorID int64) (*models.ItemJobSection, error)
	Delete(ctx context.Context, id int64, actorID int64) error
}

// ItemJobSectionHandler exposes line item endpoints.
type ItemJobSectionHandler struct {
	service itemJobSectionService
}

// NewItemJobSectionHandler constructs an item handler.
func NewItemJobSectionHandler(svc itemJobSectionService) *ItemJobSectionHandler {
	return &ItemJobSectionHandler{service: svc}
}

// Create godoc
// @Summary Create item
// @Tags Items
// @Accept json
// @Produce json
// @Param payload body dto.CreateItemJobSectionRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Router /item-job-section/create [post]
func (h *ItemJobSectionHandler) Create(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateItemJobSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid item payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "item created", item)
}

// Update godoc
// @Summary Update item
// @Tags Items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param payload body dto.UpdateItemJobSectionRequest true "Item payload"
// @Success 200 {object} response.Envelope
// @Router /item-job-section/update/{id} [patch]
func (h *ItemJobSectionHandler) Update(c *gin.Context) {
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
	var req dto.UpdateItemJobSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid item payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "item updated", item)
}

// Delete godoc
// @Summary Delete item
// @Tags Items
// @Param id path int true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /item-job-section/delete/{id} [delete]
func (h *ItemJobSectionHandler) Delete(c *gin.Context) {
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
	response.OK(c, "item deleted", nil)
}
