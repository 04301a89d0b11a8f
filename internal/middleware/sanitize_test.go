package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sanitizeRoundTrip(t *testing.T, method, body string) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SanitizeJSON())
	echo := func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.String(http.StatusOK, string(data))
	}
	router.POST("/echo", echo)
	router.GET("/echo", echo)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.String()
}

func TestSanitizeJSONStripsMarkup(t *testing.T) {
	status, body := sanitizeRoundTrip(t, http.MethodPost, `{"name":"<script>alert(1)</script>Galian & Urugan","volume":1.2500,"nested":{"unit":"<b>m3</b>"},"list":["<i>a</i>"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"name":"Galian & Urugan","volume":1.2500,"nested":{"unit":"m3"},"list":["a"]}`, body)
	assert.Contains(t, body, "1.2500")
}

func TestSanitizeJSONRejectsMalformed(t *testing.T) {
	status, _ := sanitizeRoundTrip(t, http.MethodPost, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSanitizeJSONSkipsReads(t *testing.T) {
	status, body := sanitizeRoundTrip(t, http.MethodGet, `<b>raw</b>`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `<b>raw</b>`, body)

	status, body = sanitizeRoundTrip(t, http.MethodPost, ``)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestSanitizeJSONStripsEntityEncodedMarkup(t *testing.T) {
	status, body := sanitizeRoundTrip(t, http.MethodPost, `{"name":"&lt;script&gt;alert(1)&lt;/script&gt;Beton","unit":"&amp;lt;b&amp;gt;m3&amp;lt;/b&amp;gt;","information":"a &lt; b"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "script")
	assert.NotContains(t, body, `<b`)
	assert.JSONEq(t, `{"name":"Beton","unit":"m3","information":"a < b"}`, body)
}
