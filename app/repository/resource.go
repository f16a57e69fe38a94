package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
)

var authorQueries = map[entity.TargetKind]string{
	entity.TargetPost:    `SELECT author FROM posts WHERE id = ?`,
	entity.TargetComment: `SELECT author FROM comments WHERE id = ?`,
}

// ResourceRepository reads the ownership column of posts and comments. The
// rows themselves are managed elsewhere.
type ResourceRepository struct {
	db DBTX
}

func NewResourceRepository(db DBTX) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// FindAuthor returns the author of the target and whether the target exists.
func (r *ResourceRepository) FindAuthor(ctx context.Context, target entity.Target) (uint64, bool, error) {
	query, ok := authorQueries[target.Kind]
	if !ok {
		return 0, false, ErrUnknownTarget
	}

	var author uint64
	err := r.db.QueryRowContext(ctx, query, target.ID).Scan(&author)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return author, true, nil
}
