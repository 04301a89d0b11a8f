package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rab-api/internal/models"
)

type recordingAudit struct {
	entries []*models.AuditLog
	err     error
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, log)
	return r.err
}

func newAuditRouter(recorder AuditRecorder, status int, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	})
	router.GET("/document/verify/:slug", Audit(recorder, models.AuditActionDocumentVerify, "document", "slug"), func(c *gin.Context) {
		c.Status(status)
	})
	return router
}

func TestAuditRecordsAnonymousSuccess(t *testing.T) {
	recorder := &recordingAudit{}
	router := newAuditRouter(recorder, http.StatusOK, nil)

	req := httptest.NewRequest(http.MethodGet, "/document/verify/rumah-1", nil)
	req.Header.Set("User-Agent", "qr-scanner")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, models.AuditActionDocumentVerify, entry.Action)
	assert.Nil(t, entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "rumah-1", *entry.ResourceID)
	assert.Equal(t, "qr-scanner", entry.UserAgent)
	assert.Contains(t, string(entry.NewValues), `"status":200`)
}

func TestAuditRecordsActor(t *testing.T) {
	recorder := &recordingAudit{err: errors.New("db down")}
	router := newAuditRouter(recorder, http.StatusOK, &models.JWTClaims{UserID: 3})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/document/verify/rumah-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, recorder.entries, 1)
	require.NotNil(t, recorder.entries[0].UserID)
	assert.Equal(t, int64(3), *recorder.entries[0].UserID)
}

func TestAuditSkipsFailures(t *testing.T) {
	recorder := &recordingAudit{}
	router := newAuditRouter(recorder, http.StatusForbidden, nil)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/document/verify/rumah-1", nil))
	assert.Empty(t, recorder.entries)
}
