package repository

import (
	"context"

	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/persistence"
)

// CancellationRepository defines persistence access for cancellation records.
type CancellationRepository interface {
	Create(ctx context.Context, cancellation domain.Cancellation) error
	ListByPatient(ctx context.Context, patientName string) ([]domain.Cancellation, error)
}

type cancellationRepository struct {
	log *persistence.Log[domain.Cancellation]
}

// NewCancellationRepository constructs repository.
func NewCancellationRepository(log *persistence.Log[domain.Cancellation]) CancellationRepository {
	return &cancellationRepository{log: log}
}

func (r *cancellationRepository) Create(ctx context.Context, cancellation domain.Cancellation) error {
	return r.log.Append(ctx, cancellation)
}

func (r *cancellationRepository) ListByPatient(ctx context.Context, patientName string) ([]domain.Cancellation, error) {
	return r.log.All(ctx, func(c domain.Cancellation) bool {
		return c.PatientName == patientName
	})
}
