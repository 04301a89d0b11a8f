package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, query dto.UserListQuery) (*dto.UserList, error)
	Create(ctx context.Context, req dto.CreateUserRequest, actorID int64) (*models.User, error)
	Update(ctx context.Context, id int64, req dto.UpdateUserRequest, actorID int64) (*models.User, error)
	ChangePassword(ctx context.Context, id int64, req dto.ChangePasswordRequest, actorID int64) error
	ResetPassword(ctx context.Context, id int64, actorID int64) error
	Remove(ctx context.Context, id int64, actorID int64) error
}

// UserHandler exposes user management and profile maintenance.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List regular users
// @Tags Users
// @Produce json
// @Param name query string false "Name filter"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/list [get]
func (h *UserHandler) List(c *gin.Context) {
	var query dto.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid user list query"))
		return
	}

	list, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "user list retrieved", list)
}

// Create godoc
// @Summary Create user
// @Description Create a regular user with the default password
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "Create user payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/create [post]
func (h *UserHandler) Create(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid create user payload"))
		return
	}

	user, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "user created", user)
}

// Update godoc
// @Summary Update user profile
// @Description Users may update their own profile; administrators may update anyone
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param payload body dto.UpdateUserRequest true "Update user payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/update/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
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

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid update user payload"))
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "user updated", user)
}

// ChangePassword godoc
// @Summary Change own password
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param payload body dto.ChangePasswordRequest true "Change password payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/change-password/{id} [patch]
func (h *UserHandler) ChangePassword(c *gin.Context) {
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

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid change password payload"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), id, req, actor); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "password changed", nil)
}

// ResetPassword godoc
// @Summary Reset user password
// @Description Restore a regular user's password to the configured default
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/reset-password/{id} [patch]
func (h *UserHandler) ResetPassword(c *gin.Context) {
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

	if err := h.service.ResetPassword(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "password reset", nil)
}

// Remove godoc
// @Summary Remove user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/remove/{id} [delete]
func (h *UserHandler) Remove(c *gin.Context) {
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

	if err := h.service.Remove(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "user removed", nil)
}
