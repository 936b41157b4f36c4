package middleware

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/pkg/logger"
)

const auditBodyLimit = 2000

var (
	sensitiveKeys = `password|access_token|refresh_token|token|secret|api_key|apikey`

	jsonSecretPattern = regexp.MustCompile(`(?i)("(?:` + sensitiveKeys + `)"\s*:\s*")[^"]*("|$)`)
	formSecretPattern = regexp.MustCompile(`(?i)((?:^|&)(?:` + sensitiveKeys + `)=)[^&]*`)
)

// AuditLog writes one audit line per write request (POST, PUT, PATCH, DELETE)
// once the handler has run. Secrets in the body are masked.
func AuditLog() gin.HandlerFunc {
	audit := logger.Component("audit")
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil && !isMultipart(c.Request) {
			var err error
			body, err = captureBody(c.Request)
			if err != nil {
				audit.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("could not read request body")
			}
		}

		c.Next()

		status := c.Writer.Status()
		event := audit.Info()
		if status >= http.StatusBadRequest {
			event = audit.Warn()
		}
		event.
			Str("module", routeModule(c.FullPath())).
			Str("action", routeAction(method)).
			Str("user_id", GetUserID(c)).
			Str("username", GetUsername(c)).
			Str("ip", c.ClientIP()).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("body", body).
			Msg("audit")
	}
}

type replayBody struct {
	io.Reader
	io.Closer
}

// captureBody reads at most auditBodyLimit bytes of the request body for the
// log, masked, and puts them back in front of the unread remainder.
func captureBody(r *http.Request) (string, error) {
	prefix, err := io.ReadAll(io.LimitReader(r.Body, auditBodyLimit+1))
	r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(prefix), r.Body), Closer: r.Body}
	if err != nil {
		return "", err
	}

	if len(prefix) > auditBodyLimit {
		return maskSensitiveFields(string(prefix[:auditBodyLimit])) + "...[truncated]", nil
	}
	return maskSensitiveFields(string(prefix)), nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

// routeModule returns the first segment of a route pattern after the optional
// /api prefix, e.g. "/api/projects/:id" gives "projects".
func routeModule(fullPath string) string {
	path := strings.TrimPrefix(strings.TrimPrefix(fullPath, "/api"), "/")
	module, _, _ := strings.Cut(path, "/")
	if module == "" {
		return "unknown"
	}
	return module
}

func routeAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}

// maskSensitiveFields hides secret values in JSON and form-encoded bodies.
func maskSensitiveFields(body string) string {
	body = jsonSecretPattern.ReplaceAllString(body, "${1}***${2}")
	return formSecretPattern.ReplaceAllString(body, "${1}***")
}
