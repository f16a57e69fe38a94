package controller

import (
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-segfault/app/dto/http"
	"github.com/vibast-solutions/ms-go-segfault/app/middleware"
	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var errorCategories = []struct {
	category error
	status   int
}{
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrConflict, http.StatusConflict},
}

// respondError writes err as a JSON error. Service errors keep their
// message without the category prefix; anything unclassified is logged and
// hidden behind a 500, unless the request deadline expired or the client
// went away, which answers 503.
func respondError(ctx echo.Context, err error, fields logrus.Fields, action string) error {
	for _, c := range errorCategories {
		if errors.Is(err, c.category) {
			logrus.WithFields(fields).WithField("reason", err.Error()).Warn(action + " failed")
			if c.status == http.StatusUnauthorized {
				ctx.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			}
			message := strings.TrimPrefix(err.Error(), c.category.Error()+": ")
			return ctx.JSON(c.status, httpdto.ErrorResponse{Error: message})
		}
	}

	if middleware.RequestAborted(ctx.Request().Context(), err) {
		logrus.WithError(err).WithFields(fields).Warn(action + " aborted")
		return ctx.JSON(http.StatusServiceUnavailable, httpdto.ErrorResponse{Error: "request timed out"})
	}

	logrus.WithError(err).WithFields(fields).Error(action + " failed")
	return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
}
