package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	appErrors "github.com/noah-isme/rab-api/pkg/errors"
	"github.com/noah-isme/rab-api/pkg/response"
)

// maxSanitizePasses bounds the sanitize/unescape loop for nested entity encodings.
const maxSanitizePasses = 4

// SanitizeJSON strips markup from every string in a JSON request body.
// Numbers are kept verbatim so decimal amounts survive the round trip.
func SanitizeJSON() gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		if c.Request.Body == nil || !strings.Contains(c.ContentType(), "json") {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid body"))
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		decoder := json.NewDecoder(bytes.NewReader(buf))
		decoder.UseNumber()
		var body interface{}
		if err := decoder.Decode(&body); err != nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrBadRequest, "malformed JSON"))
			return
		}

		cleaned, err := json.Marshal(sanitizeValue(policy, body))
		if err != nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrBadRequest, "malformed JSON"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(cleaned))
		c.Request.ContentLength = int64(len(cleaned))
		c.Next()
	}
}

func sanitizeValue(policy *bluemonday.Policy, value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return sanitizeString(policy, v)
	case map[string]interface{}:
		for key, item := range v {
			v[key] = sanitizeValue(policy, item)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = sanitizeValue(policy, item)
		}
		return v
	}
	return value
}

// sanitizeString strips markup and decodes entities until the text is stable,
// so entity-encoded tags cannot come back to life after unescaping. Text that
// does not settle keeps bluemonday's escaped output.
func sanitizeString(policy *bluemonday.Policy, value string) string {
	current := value
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(policy.Sanitize(current))
		if next == current {
			return next
		}
		current = next
	}
	return policy.Sanitize(current)
}
