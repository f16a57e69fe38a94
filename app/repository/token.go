package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
)

type TokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *entity.SingleUseToken) error {
	query := `
		INSERT INTO tokens (token, user_id, type, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		int(token.Purpose),
		token.CreatedAt,
	)
	return classify(err)
}

// FindByTokenForUpdate locks the token row for the rest of the
// transaction. Must be called on a repository bound to a *sql.Tx.
func (r *TokenRepository) FindByTokenForUpdate(ctx context.Context, token string) (*entity.SingleUseToken, error) {
	query := `
		SELECT token, user_id, type, created_at
		FROM tokens WHERE token = ? FOR UPDATE
	`
	var purpose int
	t := &entity.SingleUseToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&t.Token,
		&t.UserID,
		&purpose,
		&t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Purpose = entity.TokenPurpose(purpose)
	return t, nil
}

func (r *TokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	query := `DELETE FROM tokens WHERE token = ?`
	result, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *TokenRepository) DeleteByUserAndPurpose(ctx context.Context, userID uint64, purpose entity.TokenPurpose) error {
	query := `DELETE FROM tokens WHERE user_id = ? AND type = ?`
	_, err := r.db.ExecContext(ctx, query, userID, int(purpose))
	return err
}
