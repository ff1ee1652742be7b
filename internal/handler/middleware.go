package handler

import (
	"authcore/internal/service"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	usernameKey     = "Username"
	requestIDKey    = "RequestID"
	requestIDHeader = "X-Request-ID"

	bearerPrefix = "Bearer "
)

// RequestID tags every request with an id, reusing one sent by the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			if v4, err := uuid.NewV4(); err == nil {
				id = v4.String()
			}
		}

		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()
	}
}

func AuthMiddleware(srvc service.Service, lgr *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			newErrorResponse(c, http.StatusUnauthorized, "empty authorization header")

			return
		}

		token, ok := extractBearer(authHeader)
		if !ok {
			newErrorResponse(c, http.StatusUnauthorized, "invalid authorization header")

			return
		}

		username, err := srvc.Authorize(c.Request.Context(), token)
		if err != nil {
			lgr.Debug("request not authorized",
				slog.String("request_id", c.GetString(requestIDKey)),
				slog.Any("error", err),
			)

			newErrorResponse(c, http.StatusUnauthorized, "invalid token")

			return
		}

		c.Set(usernameKey, username)

		c.Next()
	}
}

// extractBearer strips the scheme from an Authorization header value. Some
// clients send the scheme twice, so a second prefix is dropped too.
func extractBearer(header string) (string, bool) {
	token, ok := cutBearer(strings.TrimSpace(header))
	if !ok {
		return "", false
	}
	if rest, ok := cutBearer(token); ok {
		token = rest
	}

	return token, token != ""
}

func cutBearer(s string) (string, bool) {
	if len(s) < len(bearerPrefix) || !strings.EqualFold(s[:len(bearerPrefix)], bearerPrefix) {
		return s, false
	}
	return strings.TrimSpace(s[len(bearerPrefix):]), true
}
