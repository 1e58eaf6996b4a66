package repository

import (
	"context"

	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/persistence"
)

// PasswordResetRepository is the reset history: an audit trail of completed
// password resets.
type PasswordResetRepository interface {
	RecordReset(ctx context.Context, username string) (domain.PasswordReset, error)
	ListHistory(ctx context.Context, username string) ([]domain.PasswordReset, error)
}

type passwordResetRepository struct {
	log *persistence.Log[domain.PasswordReset]
	ids *domain.IDGenerator
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(log *persistence.Log[domain.PasswordReset], ids *domain.IDGenerator) PasswordResetRepository {
	return &passwordResetRepository{log: log, ids: ids}
}

// RecordReset appends a completed reset event for username.
func (r *passwordResetRepository) RecordReset(ctx context.Context, username string) (domain.PasswordReset, error) {
	at := r.ids.Now()
	reset := domain.PasswordReset{
		ResetID:   r.ids.IDAt(domain.ResetIDPrefix, at),
		Username:  username,
		ResetDate: at,
		Status:    domain.ResetStatusCompleted,
	}
	if err := r.log.Append(ctx, reset); err != nil {
		return domain.PasswordReset{}, err
	}
	return reset, nil
}

func (r *passwordResetRepository) ListHistory(ctx context.Context, username string) ([]domain.PasswordReset, error) {
	return r.log.All(ctx, func(p domain.PasswordReset) bool {
		return p.Username == username
	})
}
