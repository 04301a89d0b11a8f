package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/rab-api/internal/models"
)

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		claims *models.JWTClaims
		status int
	}{
		{"admin", &models.JWTClaims{UserID: 1, Role: models.RoleAdmin}, http.StatusOK},
		{"user", &models.JWTClaims{UserID: 2, Role: models.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tc.claims != nil {
					c.Set(ContextUserKey, tc.claims)
				}
				c.Next()
			})
			router.Use(RequireRoles(models.RoleAdmin))
			router.GET("/users/list", func(c *gin.Context) { c.Status(http.StatusOK) })

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users/list", nil))
			assert.Equal(t, tc.status, recorder.Code)
		})
	}
}
