package repository

import (
	"context"

	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/persistence"
)

// UserRepository defines persistence access for identities.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	ReplaceAll(ctx context.Context, users []domain.User) error
	List(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	log *persistence.Log[domain.User]
}

// NewUserRepository returns a users.log backed implementation.
func NewUserRepository(log *persistence.Log[domain.User]) UserRepository {
	return &userRepository{log: log}
}

func (r *userRepository) Create(ctx context.Context, user domain.User) error {
	return r.log.Append(ctx, user)
}

// ReplaceAll rewrites users.log with exactly users, in order.
func (r *userRepository) ReplaceAll(ctx context.Context, users []domain.User) error {
	return r.log.Rewrite(ctx, users)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.log.All(ctx, nil)
}
