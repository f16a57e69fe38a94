package notify

import (
	"fmt"
	"net/url"
	"strings"
)

// Links embedded in messages point at the frontend, which forwards the
// token to the matching API route.
const (
	verifyEmailPath   = "/verify-email"
	resetPasswordPath = "/reset-password"
)

type Recipient struct {
	Email     string
	FirstName string
}

func Welcome(frontendURL string, to Recipient, token string) Notification {
	return Notification{
		Kind:      KindWelcome,
		Recipient: to.Email,
		Subject:   "Welcome to Segmentation Fault!",
		Body: fmt.Sprintf(
			"Hello %s,\n\nClick the link below to verify your email for Segmentation Fault:\n\n%s",
			to.FirstName, tokenLink(frontendURL, verifyEmailPath, token),
		),
	}
}

func PasswordReset(frontendURL string, to Recipient, token string) Notification {
	return Notification{
		Kind:      KindPasswordReset,
		Recipient: to.Email,
		Subject:   "Password Reset Requested",
		Body: fmt.Sprintf(
			"Hello %s,\n\nClick the link below to reset your password for Segmentation Fault:\n\n%s",
			to.FirstName, tokenLink(frontendURL, resetPasswordPath, token),
		),
	}
}

func tokenLink(frontendURL, path, token string) string {
	return strings.TrimRight(frontendURL, "/") + path + "?token=" + url.QueryEscape(token)
}
