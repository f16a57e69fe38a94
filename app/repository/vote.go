package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
)

// Stored values of votes.type.
const (
	voteTypeDown = 0
	voteTypeUp   = 1
)

type voteQueries struct {
	count  string
	find   string
	delete string
	insert string
}

var voteQueriesByKind = map[entity.TargetKind]voteQueries{
	entity.TargetPost: {
		count:  `SELECT COUNT(*) FROM votes WHERE parent_post = ? AND type = ?`,
		find:   `SELECT type FROM votes WHERE parent_post = ? AND user_id = ?`,
		delete: `DELETE FROM votes WHERE parent_post = ? AND user_id = ?`,
		insert: `INSERT INTO votes (parent_post, user_id, type) VALUES (?, ?, ?)`,
	},
	entity.TargetComment: {
		count:  `SELECT COUNT(*) FROM votes WHERE parent_comment = ? AND type = ?`,
		find:   `SELECT type FROM votes WHERE parent_comment = ? AND user_id = ?`,
		delete: `DELETE FROM votes WHERE parent_comment = ? AND user_id = ?`,
		insert: `INSERT INTO votes (parent_comment, user_id, type) VALUES (?, ?, ?)`,
	},
}

type VoteRepository struct {
	db DBTX
}

func NewVoteRepository(db DBTX) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) CountByDirection(ctx context.Context, target entity.Target, direction entity.VoteDirection) (int64, error) {
	q, ok := voteQueriesByKind[target.Kind]
	if !ok {
		return 0, ErrUnknownTarget
	}
	stored, ok := storedVoteType(direction)
	if !ok {
		return 0, nil
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, q.count, target.ID, stored).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *VoteRepository) FindDirection(ctx context.Context, target entity.Target, userID uint64) (entity.VoteDirection, error) {
	q, ok := voteQueriesByKind[target.Kind]
	if !ok {
		return entity.VoteNone, ErrUnknownTarget
	}

	var stored int
	err := r.db.QueryRowContext(ctx, q.find, target.ID, userID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.VoteNone, nil
	}
	if err != nil {
		return entity.VoteNone, err
	}
	if stored == voteTypeUp {
		return entity.VoteUp, nil
	}
	return entity.VoteDown, nil
}

func (r *VoteRepository) Delete(ctx context.Context, target entity.Target, userID uint64) error {
	q, ok := voteQueriesByKind[target.Kind]
	if !ok {
		return ErrUnknownTarget
	}
	if _, err := r.db.ExecContext(ctx, q.delete, target.ID, userID); err != nil {
		return classify(err)
	}
	return nil
}

func (r *VoteRepository) Create(ctx context.Context, vote *entity.Vote) error {
	q, ok := voteQueriesByKind[vote.Target.Kind]
	if !ok {
		return ErrUnknownTarget
	}
	stored, ok := storedVoteType(vote.Direction)
	if !ok {
		return errors.New("cannot store an empty vote")
	}

	result, err := r.db.ExecContext(ctx, q.insert, vote.Target.ID, vote.UserID, stored)
	if err != nil {
		return classify(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	vote.ID = uint64(id)
	return nil
}

func storedVoteType(direction entity.VoteDirection) (int, bool) {
	switch direction {
	case entity.VoteUp:
		return voteTypeUp, true
	case entity.VoteDown:
		return voteTypeDown, true
	default:
		return 0, false
	}
}
