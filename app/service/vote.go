package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/repository"

	"github.com/sirupsen/logrus"
)

type voteRepository interface {
	CountByDirection(ctx context.Context, target entity.Target, direction entity.VoteDirection) (int64, error)
	FindDirection(ctx context.Context, target entity.Target, userID uint64) (entity.VoteDirection, error)
}

// VoteLedger keeps at most one vote per user and target and derives the
// target's score from the stored votes.
type VoteLedger interface {
	GetScore(ctx context.Context, target entity.Target) (int64, error)
	GetVote(ctx context.Context, target entity.Target, userID uint64) (entity.VoteDirection, error)
	SetVote(ctx context.Context, target entity.Target, userID uint64, direction entity.VoteDirection) error
}

type voteLedger struct {
	db       *sql.DB
	voteRepo voteRepository
}

func NewVoteLedger(db *sql.DB, voteRepo voteRepository) VoteLedger {
	return &voteLedger{db: db, voteRepo: voteRepo}
}

func (l *voteLedger) GetScore(ctx context.Context, target entity.Target) (int64, error) {
	ups, err := l.voteRepo.CountByDirection(ctx, target, entity.VoteUp)
	if err != nil {
		return 0, mapVoteError(err)
	}
	downs, err := l.voteRepo.CountByDirection(ctx, target, entity.VoteDown)
	if err != nil {
		return 0, mapVoteError(err)
	}
	return ups - downs, nil
}

func (l *voteLedger) GetVote(ctx context.Context, target entity.Target, userID uint64) (entity.VoteDirection, error) {
	direction, err := l.voteRepo.FindDirection(ctx, target, userID)
	if err != nil {
		return entity.VoteNone, mapVoteError(err)
	}
	return direction, nil
}

// SetVote replaces the user's vote on target. VoteNone only clears it.
// A replacement that loses a race with a concurrent one for the same user
// and target (deadlock or duplicate insert) is retried once.
func (l *voteLedger) SetVote(ctx context.Context, target entity.Target, userID uint64, direction entity.VoteDirection) error {
	switch direction {
	case entity.VoteNone, entity.VoteUp, entity.VoteDown:
	default:
		return ErrInvalidVote
	}

	err := l.replaceVote(ctx, target, userID, direction)
	if errors.Is(err, repository.ErrDeadlock) || errors.Is(err, repository.ErrDuplicateEntry) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"target":  target.String(),
			"user_id": userID,
		}).Warn("Retrying vote replacement")
		err = l.replaceVote(ctx, target, userID, direction)
	}
	return mapVoteError(err)
}

func (l *voteLedger) replaceVote(ctx context.Context, target entity.Target, userID uint64, direction entity.VoteDirection) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txVoteRepo := repository.NewVoteRepository(tx)
	if err = txVoteRepo.Delete(ctx, target, userID); err != nil {
		return err
	}

	if direction != entity.VoteNone {
		vote := &entity.Vote{UserID: userID, Target: target, Direction: direction}
		if err = txVoteRepo.Create(ctx, vote); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func mapVoteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUnknownTarget), errors.Is(err, repository.ErrMissingReference):
		return ErrResourceNotFound
	default:
		return err
	}
}
