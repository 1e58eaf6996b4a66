package repository

import (
	"context"

	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/persistence"
)

// BookingRepository defines persistence access for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) error
	ListByPatient(ctx context.Context, patientName string) ([]domain.Booking, error)
}

type bookingRepository struct {
	log *persistence.Log[domain.Booking]
}

// NewBookingRepository returns a bookings.log backed implementation.
func NewBookingRepository(log *persistence.Log[domain.Booking]) BookingRepository {
	return &bookingRepository{log: log}
}

func (r *bookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	return r.log.Append(ctx, booking)
}

// ListByPatient rescans the log; matching is exact and case-sensitive.
func (r *bookingRepository) ListByPatient(ctx context.Context, patientName string) ([]domain.Booking, error) {
	return r.log.All(ctx, func(b domain.Booking) bool {
		return b.PatientName == patientName
	})
}
