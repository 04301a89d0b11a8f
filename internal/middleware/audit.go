package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/logger"
	"github.com/noah-isme/rab-api/pkg/middleware/requestid"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an entry after every successful request. The resource id is
// taken from the named path parameter. Anonymous callers are recorded with
// their client address only.
func Audit(recorder AuditRecorder, action, resource, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *int64
		if value, ok := c.Get(ContextUserKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok {
				id := claims.UserID
				userID = &id
			}
		}

		var resourceID *string
		if value := c.Param(param); value != "" {
			resourceID = &value
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
			"request": requestid.FromContext(c.Request.Context()),
		})

		if err := recorder.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			logger.FromContext(c, nil).Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
		}
	}
}
