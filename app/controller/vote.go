package controller

import (
	"net/http"
	"strconv"

	httpdto "github.com/vibast-solutions/ms-go-segfault/app/dto/http"
	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/middleware"
	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// VoteController serves the vote and ownership routes of one target kind.
// Scores are written as a bare JSON number and directions as a bare JSON
// string ("true", "false" or "null"), the shape the web client parses.
type VoteController struct {
	kind   entity.TargetKind
	ledger service.VoteLedger
}

func NewVoteController(kind entity.TargetKind, ledger service.VoteLedger) *VoteController {
	return &VoteController{kind: kind, ledger: ledger}
}

func (c *VoteController) GetScore(ctx echo.Context) error {
	target, ok := c.target(ctx)
	if !ok {
		return invalidID(ctx)
	}

	score, err := c.ledger.GetScore(ctx.Request().Context(), target)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"target": target.String()}, "Get score")
	}
	return ctx.JSON(http.StatusOK, score)
}

func (c *VoteController) GetVote(ctx echo.Context) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "not authenticated"})
	}
	target, ok := c.target(ctx)
	if !ok {
		return invalidID(ctx)
	}

	direction, err := c.ledger.GetVote(ctx.Request().Context(), target, user.ID)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"target": target.String(), "user_id": user.ID}, "Get vote")
	}
	return ctx.JSON(http.StatusOK, direction.String())
}

func (c *VoteController) SetVote(ctx echo.Context) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "not authenticated"})
	}
	target, ok := c.target(ctx)
	if !ok {
		return invalidID(ctx)
	}

	direction, err := entity.ParseVoteDirection(ctx.QueryParam("type"))
	if err != nil {
		return respondError(ctx, service.ErrInvalidVote, logrus.Fields{"type": ctx.QueryParam("type")}, "Set vote")
	}

	fields := logrus.Fields{"target": target.String(), "user_id": user.ID, "type": direction.String()}
	if err = c.ledger.SetVote(ctx.Request().Context(), target, user.ID, direction); err != nil {
		return respondError(ctx, err, fields, "Set vote")
	}

	logrus.WithFields(fields).Debug("Vote recorded")
	return ctx.JSON(http.StatusCreated, direction.String())
}

// Ownership answers only for requests that passed RequireOwner.
func (c *VoteController) Ownership(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, httpdto.OwnershipResponse{Owner: true})
}

func (c *VoteController) target(ctx echo.Context) (entity.Target, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return entity.Target{}, false
	}
	return entity.Target{Kind: c.kind, ID: id}, true
}

func invalidID(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid id"})
}
