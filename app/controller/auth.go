package controller

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-segfault/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-segfault/app/dto/http"
	"github.com/vibast-solutions/ms-go-segfault/app/middleware"
	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	sessions service.SessionIssuer
	accounts service.AccountService
}

func NewAuthController(sessions service.SessionIssuer, accounts service.AccountService) *AuthController {
	return &AuthController{sessions: sessions, accounts: accounts}
}

// Login accepts either the OAuth2 password form or a JSON body.
func (c *AuthController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Username == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "username and password are required"})
	}

	token, err := c.sessions.Login(ctx.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"username": req.Username}, "Login")
	}

	logrus.WithField("username", req.Username).Info("Login successful")
	return ctx.JSON(http.StatusOK, token)
}

func (c *AuthController) SignUp(ctx echo.Context) error {
	var req httpdto.SignUpRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind sign-up request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	user, err := c.accounts.SignUp(ctx.Request().Context(), dto.SignUpInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"username": req.Username, "email": req.Email}, "Sign-up")
	}

	return ctx.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

func (c *AuthController) VerifyEmail(ctx echo.Context) error {
	token := ctx.QueryParam("token")
	if token == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "token is required"})
	}

	if err := c.accounts.VerifyEmail(ctx.Request().Context(), token); err != nil {
		return respondError(ctx, err, nil, "Verify email")
	}
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "email verified"})
}

func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	var req httpdto.ForgotPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot-password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Email == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email is required"})
	}

	if err := c.accounts.ForgotPassword(ctx.Request().Context(), req.Email); err != nil {
		return respondError(ctx, err, logrus.Fields{"email": req.Email}, "Forgot password")
	}
	return ctx.JSON(http.StatusCreated, httpdto.MessageResponse{Message: "password reset email sent"})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	var req httpdto.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset-password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Token == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "token is required"})
	}

	if err := c.accounts.ResetPassword(ctx.Request().Context(), req.Token, req.Password); err != nil {
		return respondError(ctx, err, nil, "Reset password")
	}
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password updated"})
}

// CurrentUser must be routed behind RequireAuth.
func (c *AuthController) CurrentUser(ctx echo.Context) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "not authenticated"})
	}
	return ctx.JSON(http.StatusOK, dto.NewUserResponse(user))
}
