package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ownershipAuthorizer interface {
	Authorize(ctx context.Context, principal *entity.User, kind entity.TargetKind, id uint64) (bool, error)
}

// OwnershipMiddleware admits only the author of the post or comment named
// by the :id path parameter. It must run after RequireAuth.
type OwnershipMiddleware struct {
	guard ownershipAuthorizer
}

func NewOwnershipMiddleware(guard ownershipAuthorizer) *OwnershipMiddleware {
	return &OwnershipMiddleware{guard: guard}
}

func (m *OwnershipMiddleware) RequireOwner(kind entity.TargetKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return unauthorized(c, "not authenticated")
			}

			id, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{
					"error": "invalid id",
				})
			}

			_, err = m.guard.Authorize(c.Request().Context(), user, kind, id)
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, service.ErrForbidden):
				logrus.WithFields(logrus.Fields{
					"user_id": user.ID,
					"target":  entity.Target{Kind: kind, ID: id}.String(),
				}).Debug("Ownership check failed")
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "you are not the author of this " + kind.String(),
				})
			case errors.Is(err, service.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{
					"error": kind.String() + " not found",
				})
			case errors.Is(err, service.ErrUnauthorized):
				return unauthorized(c, "not authenticated")
			default:
				return internalError(c, err, "Ownership check failed")
			}
		}
	}
}
