package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-segfault/app/dto"
	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type sessionUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

type passwordVerifier interface {
	Verify(plaintext, digest string) (bool, error)
}

// SessionIssuer exchanges credentials for signed bearer tokens and resolves
// those tokens back to users.
type SessionIssuer interface {
	Login(ctx context.Context, username, password string) (*dto.AccessToken, error)
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

type Clock func() time.Time

type SessionIssuerOption func(*sessionIssuer)

type sessionIssuer struct {
	userRepo    sessionUserRepository
	credentials passwordVerifier
	cfg         config.JWTConfig
	method      jwt.SigningMethod
	now         Clock
}

func NewSessionIssuer(
	userRepo sessionUserRepository,
	credentials passwordVerifier,
	cfg config.JWTConfig,
	opts ...SessionIssuerOption,
) SessionIssuer {
	svc := &sessionIssuer{
		userRepo:    userRepo,
		credentials: credentials,
		cfg:         cfg,
		method:      jwt.GetSigningMethod(cfg.Algorithm),
		now:         time.Now,
	}
	if svc.method == nil {
		svc.method = jwt.SigningMethodHS256
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithClock replaces the time source used for issuing and checking expiry.
func WithClock(clock Clock) SessionIssuerOption {
	return func(s *sessionIssuer) {
		if clock != nil {
			s.now = clock
		}
	}
}

func (s *sessionIssuer) Login(ctx context.Context, username, password string) (*dto.AccessToken, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.credentials.Verify(password, user.PasswordHash)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("stored password digest is unusable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	signed, err := s.sign(user.Username)
	if err != nil {
		return nil, err
	}

	return &dto.AccessToken{
		AccessToken: signed,
		TokenType:   dto.TokenTypeBearer,
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *sessionIssuer) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, ErrInvalidAccessToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidAccessToken
	}

	user, err := s.userRepo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidAccessToken
	}
	return user, nil
}

func (s *sessionIssuer) sign(username string) (string, error) {
	now := s.now()
	claims := &jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
	}
	return jwt.NewWithClaims(s.method, claims).SignedString([]byte(s.cfg.Secret))
}
