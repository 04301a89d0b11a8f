package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestErrorHidesInternalCause(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAbortStopsChain(t *testing.T) {
	c, w := newContext()
	Abort(c, appErrors.Clone(appErrors.ErrForbidden, "not a participant"))

	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusForbidden, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
	assert.Equal(t, "not a participant", env.Error.Message)
	assert.Empty(t, c.Errors)
}

func TestAttachmentQuotesFilename(t *testing.T) {
	c, w := newContext()
	Attachment(c, "application/pdf", "document rumah 1.pdf", []byte("%PDF"))

	assert.Equal(t, `attachment; filename="document rumah 1.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}
