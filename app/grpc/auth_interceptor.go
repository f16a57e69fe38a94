package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type principalKey struct{}

type principalResolver interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// BearerUnaryInterceptor authenticates the "authorization: Bearer <token>"
// metadata of every call and stores the principal in the context.
func BearerUnaryInterceptor(sessions principalResolver) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		user, err := authenticateIncoming(ctx, sessions)
		if err != nil {
			return nil, err
		}
		return handler(context.WithValue(ctx, principalKey{}, user), req)
	}
}

func BearerStreamInterceptor(sessions principalResolver) gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, _ *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		user, err := authenticateIncoming(ss.Context(), sessions)
		if err != nil {
			return err
		}
		ctx := context.WithValue(ss.Context(), principalKey{}, user)
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// PrincipalFromContext returns the user attached by the bearer interceptors.
func PrincipalFromContext(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*entity.User)
	return user, ok && user != nil
}

func authenticateIncoming(ctx context.Context, sessions principalResolver) (*entity.User, error) {
	token := incomingBearerToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	user, err := sessions.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "could not validate credentials")
		}
		if aborted := abortedStatus(ctx, err); aborted != nil {
			logrus.WithError(err).Warn("Access token validation aborted (grpc)")
			return nil, aborted
		}
		logrus.WithError(err).Error("Access token validation failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return user, nil
}

func incomingBearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	parts := strings.Fields(values[0])
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

type wrappedServerStream struct {
	gogrpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
