package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const ContextKeyUser = "user"

type principalResolver interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

type AuthMiddleware struct {
	sessions principalResolver
}

func NewAuthMiddleware(sessions principalResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return unauthorized(c, "missing authorization header")
		}

		token, ok := BearerToken(authHeader)
		if !ok {
			logrus.Debug("Invalid authorization header format")
			return unauthorized(c, "invalid authorization header format")
		}

		user, err := m.sessions.Authenticate(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				logrus.Debug("Invalid or expired access token")
				return unauthorized(c, "could not validate credentials")
			}
			return internalError(c, err, "Access token validation failed")
		}

		c.Set(ContextKeyUser, user)
		return next(c)
	}
}

// CurrentUser returns the principal stored by RequireAuth.
func CurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(ContextKeyUser).(*entity.User)
	return user, ok && user != nil
}

// BearerToken extracts the credential of a "Bearer <token>" header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequestAborted reports whether err is the result of the request context
// expiring or being canceled. The context is checked as well because some
// drivers surface their own error once the context is done.
func RequestAborted(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return ctx.Err() != nil
}

func internalError(c echo.Context, err error, message string) error {
	if RequestAborted(c.Request().Context(), err) {
		logrus.WithError(err).Warn(message + ": request aborted")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "request timed out",
		})
	}
	logrus.WithError(err).Error(message)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func unauthorized(c echo.Context, message string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": message,
	})
}
