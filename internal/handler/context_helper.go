package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rab-api/internal/middleware"
	"github.com/noah-isme/rab-api/internal/models"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorID returns the authenticated user id or an Unauthorized error.
func actorID(c *gin.Context) (int64, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID <= 0 {
		return 0, appErrors.ErrUnauthorized
	}
	return claims.UserID, nil
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

func bindError(err error, message string) error {
	return appErrors.Validation(err, message)
}
