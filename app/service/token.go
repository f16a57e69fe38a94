package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/repository"
)

const tokenEntropyBytes = 32

// RedeemFunc applies the state change a token authorizes. It runs inside
// the redeeming transaction and must use tx for every write.
type RedeemFunc func(ctx context.Context, tx *sql.Tx, userID uint64) error

// TokenService issues and redeems single-use tokens. A user holds at most
// one token per purpose.
type TokenService interface {
	Issue(ctx context.Context, userID uint64, purpose entity.TokenPurpose) (*entity.SingleUseToken, error)
	RedeemAndConsume(ctx context.Context, token string, purpose entity.TokenPurpose, apply RedeemFunc) (uint64, error)
}

type tokenService struct {
	db  *sql.DB
	now Clock
}

func NewTokenService(db *sql.DB) TokenService {
	return &tokenService{db: db, now: time.Now}
}

func (s *tokenService) Issue(ctx context.Context, userID uint64, purpose entity.TokenPurpose) (*entity.SingleUseToken, error) {
	value, err := generateTokenValue()
	if err != nil {
		return nil, err
	}

	token := &entity.SingleUseToken{
		Token:     value,
		UserID:    userID,
		Purpose:   purpose,
		CreatedAt: s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txTokenRepo := repository.NewTokenRepository(tx)
	if err = txTokenRepo.DeleteByUserAndPurpose(ctx, userID, purpose); err != nil {
		return nil, err
	}
	if err = txTokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *tokenService) RedeemAndConsume(ctx context.Context, token string, purpose entity.TokenPurpose, apply RedeemFunc) (uint64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	txTokenRepo := repository.NewTokenRepository(tx)
	stored, err := txTokenRepo.FindByTokenForUpdate(ctx, token)
	if err != nil {
		return 0, err
	}
	if stored == nil || stored.Purpose != purpose {
		return 0, ErrInvalidToken
	}

	if apply != nil {
		if err = apply(ctx, tx, stored.UserID); err != nil {
			return 0, err
		}
	}

	deleted, err := txTokenRepo.DeleteByToken(ctx, token)
	if err != nil {
		return 0, err
	}
	if deleted != 1 {
		return 0, ErrInvalidToken
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return stored.UserID, nil
}

func generateTokenValue() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
