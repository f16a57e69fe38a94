package service

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/repository"
)

type authorRepository interface {
	FindAuthor(ctx context.Context, target entity.Target) (uint64, bool, error)
}

// OwnershipGuard decides whether a principal authored a post or comment.
// The answer is only valid at the moment it is given.
type OwnershipGuard interface {
	Authorize(ctx context.Context, principal *entity.User, kind entity.TargetKind, id uint64) (bool, error)
}

type ownershipGuard struct {
	resources authorRepository
}

func NewOwnershipGuard(resources authorRepository) OwnershipGuard {
	return &ownershipGuard{resources: resources}
}

func (g *ownershipGuard) Authorize(ctx context.Context, principal *entity.User, kind entity.TargetKind, id uint64) (bool, error) {
	if principal == nil {
		return false, ErrInvalidAccessToken
	}

	author, found, err := g.resources.FindAuthor(ctx, entity.Target{Kind: kind, ID: id})
	if errors.Is(err, repository.ErrUnknownTarget) {
		return false, ErrResourceNotFound
	}
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrResourceNotFound
	}
	if author != principal.ID {
		return false, ErrNotOwner
	}
	return true, nil
}
