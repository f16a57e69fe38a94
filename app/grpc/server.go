package grpc

import (
	"context"
	"errors"
	"math"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/service"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// CoreServer expects BearerUnaryInterceptor in front of it; every method
// reads the principal from the context.
type CoreServer struct {
	guard  service.OwnershipGuard
	ledger service.VoteLedger
}

func NewCoreServer(guard service.OwnershipGuard, ledger service.VoteLedger) *CoreServer {
	return &CoreServer{guard: guard, ledger: ledger}
}

func (s *CoreServer) Authenticate(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"id":         float64(user.ID),
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"verified":   user.Verified,
		"is_super":   user.Super,
	})
}

func (s *CoreServer) Authorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	target, err := targetFrom(req)
	if err != nil {
		return nil, err
	}

	owner, err := s.guard.Authorize(ctx, user, target.Kind, target.ID)
	if err != nil {
		return nil, statusError(ctx, err, logrus.Fields{"user_id": user.ID, "target": target.String()}, "Authorize")
	}
	return structpb.NewStruct(map[string]any{"owner": owner})
}

func (s *CoreServer) GetScore(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	target, err := targetFrom(req)
	if err != nil {
		return nil, err
	}

	score, err := s.ledger.GetScore(ctx, target)
	if err != nil {
		return nil, statusError(ctx, err, logrus.Fields{"target": target.String()}, "Get score")
	}
	return structpb.NewStruct(map[string]any{"score": float64(score)})
}

func (s *CoreServer) GetVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	target, err := targetFrom(req)
	if err != nil {
		return nil, err
	}

	direction, err := s.ledger.GetVote(ctx, target, user.ID)
	if err != nil {
		return nil, statusError(ctx, err, logrus.Fields{"user_id": user.ID, "target": target.String()}, "Get vote")
	}
	return structpb.NewStruct(map[string]any{"type": direction.String()})
}

func (s *CoreServer) SetVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	target, err := targetFrom(req)
	if err != nil {
		return nil, err
	}

	direction, err := entity.ParseVoteDirection(voteType(req.GetFields()["type"]))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid vote type")
	}

	fields := logrus.Fields{"user_id": user.ID, "target": target.String(), "type": direction.String()}
	if err = s.ledger.SetVote(ctx, target, user.ID, direction); err != nil {
		return nil, statusError(ctx, err, fields, "Set vote")
	}

	logrus.WithFields(fields).Debug("Vote recorded (grpc)")
	return structpb.NewStruct(map[string]any{"type": direction.String()})
}

func principal(ctx context.Context) (*entity.User, error) {
	user, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}
	return user, nil
}

func targetFrom(req *structpb.Struct) (entity.Target, error) {
	fields := req.GetFields()

	kind, err := entity.ParseTargetKind(fields["kind"].GetStringValue())
	if err != nil {
		return entity.Target{}, status.Error(codes.InvalidArgument, err.Error())
	}

	id, err := idFrom(fields["id"])
	if err != nil {
		return entity.Target{}, status.Error(codes.InvalidArgument, err.Error())
	}
	return entity.Target{Kind: kind, ID: id}, nil
}

// Struct numbers are doubles; larger ids cannot be carried exactly.
const maxExactID = 1 << 53

func idFrom(v *structpb.Value) (uint64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.New("id must be a number")
	}
	f := n.NumberValue
	if f < 1 || f != math.Trunc(f) || f > maxExactID {
		return 0, errors.New("id must be a positive integer")
	}
	return uint64(f), nil
}

// voteType accepts the wire strings as well as a JSON boolean or null.
func voteType(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		if k.BoolValue {
			return "true"
		}
		return "false"
	case *structpb.Value_NullValue:
		return "null"
	case *structpb.Value_StringValue:
		return k.StringValue
	default:
		return ""
	}
}
