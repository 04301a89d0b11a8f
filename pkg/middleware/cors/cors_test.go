package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func preflight(router *gin.Engine, origin string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/document/list", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	router.ServeHTTP(recorder, req)
	return recorder
}

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(New(origins))
	router.GET("/document/list", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	router := newRouter([]string{"https://rab.example.com/"})

	recorder := preflight(router, "https://rab.example.com")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://rab.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))

	recorder = preflight(router, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestCORSAllowAllWhenUnconfigured(t *testing.T) {
	recorder := preflight(newRouter(nil), "https://anywhere.example.com")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}
