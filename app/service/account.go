package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-segfault/app/credential"
	"github.com/vibast-solutions/ms-go-segfault/app/dto"
	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/notify"
	"github.com/vibast-solutions/ms-go-segfault/app/repository"

	"github.com/sirupsen/logrus"
)

type accountUserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
}

type passwordValidator interface {
	Validate(password string) bool
}

type notifier interface {
	Notify(n notify.Notification)
}

// AccountService runs the sign-up, email verification and password
// recovery flows.
type AccountService interface {
	SignUp(ctx context.Context, input dto.SignUpInput) (*entity.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type accountService struct {
	userRepo    accountUserRepository
	tokens      TokenService
	hasher      passwordHasher
	policy      passwordValidator
	notifier    notifier
	frontendURL string
}

func NewAccountService(
	userRepo accountUserRepository,
	tokens TokenService,
	hasher passwordHasher,
	policy passwordValidator,
	notifier notifier,
	frontendURL string,
) AccountService {
	return &accountService{
		userRepo:    userRepo,
		tokens:      tokens,
		hasher:      hasher,
		policy:      policy,
		notifier:    notifier,
		frontendURL: frontendURL,
	}
}

func (s *accountService) SignUp(ctx context.Context, input dto.SignUpInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}

	if !s.policy.Validate(input.Password) {
		return nil, ErrInvalidPassword
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    time.Now(),
	}
	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, user.ID, entity.TokenEmailVerification)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(notify.Welcome(s.frontendURL, recipientOf(user), token.Token))
	logrus.WithField("user_id", user.ID).Info("user signed up")

	return user, nil
}

func (s *accountService) VerifyEmail(ctx context.Context, token string) error {
	_, err := s.tokens.RedeemAndConsume(ctx, token, entity.TokenEmailVerification,
		func(ctx context.Context, tx *sql.Tx, userID uint64) error {
			return repository.NewUserRepository(tx).MarkVerified(ctx, userID)
		})
	return err
}

func (s *accountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := s.tokens.Issue(ctx, user.ID, entity.TokenPasswordReset)
	if err != nil {
		return err
	}

	s.notifier.Notify(notify.PasswordReset(s.frontendURL, recipientOf(user), token.Token))
	return nil
}

// ResetPassword checks the new password before looking at the token so a
// rejected password leaves the token redeemable.
func (s *accountService) ResetPassword(ctx context.Context, token, password string) error {
	if !s.policy.Validate(password) {
		return ErrInvalidPassword
	}

	// Hashed outside the transaction so the token row is not locked for
	// the duration of bcrypt.
	hash, err := s.hash(password)
	if err != nil {
		return err
	}

	userID, err := s.tokens.RedeemAndConsume(ctx, token, entity.TokenPasswordReset,
		func(ctx context.Context, tx *sql.Tx, userID uint64) error {
			return repository.NewUserRepository(tx).UpdatePassword(ctx, userID, hash)
		})
	if err != nil {
		return err
	}

	logrus.WithField("user_id", userID).Info("password reset")
	return nil
}

func (s *accountService) hash(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, credential.ErrPasswordTooLong) {
		return "", ErrInvalidPassword
	}
	return hash, err
}

func recipientOf(user *entity.User) notify.Recipient {
	return notify.Recipient{Email: user.Email, FirstName: user.FirstName}
}
