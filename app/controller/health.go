package controller

import (
	"context"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-segfault/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type HealthController struct {
	db pinger
}

func NewHealthController(db pinger) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Health(ctx echo.Context) error {
	if err := c.db.PingContext(ctx.Request().Context()); err != nil {
		logrus.WithError(err).Warn("Health check failed")
		return ctx.JSON(http.StatusServiceUnavailable, httpdto.HealthResponse{Status: "unavailable"})
	}
	return ctx.JSON(http.StatusOK, httpdto.HealthResponse{Status: "ok"})
}
