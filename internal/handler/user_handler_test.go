package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

type userServiceMock struct {
	lastQuery  dto.UserListQuery
	lastCreate dto.CreateUserRequest
	createErr  error
	removed    []int64
	actor      int64
	lastUpdate dto.UpdateUserRequest
	lastChange dto.ChangePasswordRequest
	changeErr  error
	resets     []int64
}

func (m *userServiceMock) List(ctx context.Context, query dto.UserListQuery) (*dto.UserList, error) {
	m.lastQuery = query
	return &dto.UserList{
		List:       []models.User{{ID: 5, Name: "Dewi", Role: models.RoleUser}},
		Pagination: models.Pagination{Page: 1, PageSize: 10, TotalCount: 1, TotalPages: 1},
	}, nil
}

func (m *userServiceMock) Create(ctx context.Context, req dto.CreateUserRequest, actorID int64) (*models.User, error) {
	m.lastCreate = req
	m.actor = actorID
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.User{ID: 6, Name: req.Name, Email: req.Email, Role: models.RoleUser}, nil
}

func (m *userServiceMock) Remove(ctx context.Context, id int64, actorID int64) error {
	m.removed = append(m.removed, id)
	m.actor = actorID
	return nil
}

func (m *userServiceMock) Update(ctx context.Context, id int64, req dto.UpdateUserRequest, actorID int64) (*models.User, error) {
	m.lastUpdate = req
	m.actor = actorID
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	return &models.User{ID: id, Name: name, Role: models.RoleUser}, nil
}

func (m *userServiceMock) ChangePassword(ctx context.Context, id int64, req dto.ChangePasswordRequest, actorID int64) error {
	m.lastChange = req
	m.actor = actorID
	return m.changeErr
}

func (m *userServiceMock) ResetPassword(ctx context.Context, id int64, actorID int64) error {
	m.resets = append(m.resets, id)
	m.actor = actorID
	return nil
}

func TestUserHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/users/list?name=de&page=2&pageSize=5", nil)
	withActor(c, 1)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.UserListQuery{Name: "de", Page: 2, PageSize: 5}, mockSvc.lastQuery)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["totalItems"])
}

func TestUserHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/users/create", []byte(`{"name":"Eka","email":"eka@example.com","phoneNumber":"0812","position":"Checker"}`))
	withActor(c, 1)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Checker", mockSvc.lastCreate.Position)
	assert.Equal(t, int64(1), mockSvc.actor)

	mockSvc.createErr = appErrors.Clone(appErrors.ErrConflict, "email already registered")
	c, w = newGinContext(http.MethodPost, "/users/create", []byte(`{"name":"Eka","email":"eka@example.com","phoneNumber":"0812","position":"Checker"}`))
	withActor(c, 1)
	handler.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserHandlerRemove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	c, w := newGinContext(http.MethodDelete, "/users/remove/8", nil)
	c.Params = gin.Params{{Key: "id", Value: "8"}}
	withActor(c, 1)
	handler.Remove(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{8}, mockSvc.removed)

	c, w = newGinContext(http.MethodDelete, "/users/remove/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	withActor(c, 1)
	handler.Remove(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	c, w := newGinContext(http.MethodPatch, "/users/update/7", []byte(`{"name":"Sari","position":"Checker"}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withActor(c, 7)
	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastUpdate.Name)
	assert.Equal(t, "Sari", *mockSvc.lastUpdate.Name)
	assert.Nil(t, mockSvc.lastUpdate.Email)
	assert.Equal(t, int64(7), mockSvc.actor)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Sari", data["name"])

	c, w = newGinContext(http.MethodPatch, "/users/update/7", []byte(`{"name":`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withActor(c, 7)
	handler.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandlerChangePassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)
	body := []byte(`{"oldPassword":"secret1","newPassword":"newpass","confirmNewPassword":"newpass"}`)

	c, w := newGinContext(http.MethodPatch, "/users/change-password/7", body)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withActor(c, 7)
	handler.ChangePassword(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "newpass", mockSvc.lastChange.NewPassword)

	mockSvc.changeErr = appErrors.Clone(appErrors.ErrBadRequest, "old password is incorrect")
	c, w = newGinContext(http.MethodPatch, "/users/change-password/7", body)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withActor(c, 7)
	handler.ChangePassword(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandlerResetPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	c, w := newGinContext(http.MethodPatch, "/users/reset-password/8", nil)
	c.Params = gin.Params{{Key: "id", Value: "8"}}
	withActor(c, 1)
	handler.ResetPassword(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{8}, mockSvc.resets)
	assert.Equal(t, int64(1), mockSvc.actor)

	c, w = newGinContext(http.MethodPatch, "/users/reset-password/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	withActor(c, 1)
	handler.ResetPassword(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
