package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	category error
	code     codes.Code
}{
	{service.ErrUnauthorized, codes.Unauthenticated},
	{service.ErrForbidden, codes.PermissionDenied},
	{service.ErrNotFound, codes.NotFound},
	{service.ErrInvalidInput, codes.InvalidArgument},
	{service.ErrConflict, codes.AlreadyExists},
}

// statusError converts a service error to a gRPC status. A call whose
// deadline expired or was canceled keeps that code instead of Internal.
func statusError(ctx context.Context, err error, fields logrus.Fields, action string) error {
	for _, c := range errorCodes {
		if errors.Is(err, c.category) {
			logrus.WithFields(fields).WithField("reason", err.Error()).Warn(action + " failed (grpc)")
			return status.Error(c.code, strings.TrimPrefix(err.Error(), c.category.Error()+": "))
		}
	}
	if aborted := abortedStatus(ctx, err); aborted != nil {
		logrus.WithError(err).WithFields(fields).Warn(action + " aborted (grpc)")
		return aborted
	}
	logrus.WithError(err).WithFields(fields).Error(action + " failed (grpc)")
	return status.Error(codes.Internal, "internal server error")
}

func abortedStatus(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return status.FromContextError(err).Err()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return status.FromContextError(ctxErr).Err()
	}
	return nil
}
