package domain

import "time"

// Cancellation records one cancel action against a booking, with the
// booking's details copied in so the record stands on its own.
type Cancellation struct {
	CancellationID   string        `json:"cancellation_id"`
	BookingID        string        `json:"booking_id"`
	PatientName      string        `json:"patient_name"`
	AppointmentDate  string        `json:"appointment_date"`
	Services         []ServiceLine `json:"services"`
	TotalAmount      float64       `json:"total_amount"`
	Reason           string        `json:"reason"`
	CancellationDate time.Time     `json:"cancellation_date"`
}

// NewCancellation snapshots booking into a cancellation record.
func NewCancellation(id string, booking Booking, reason string, at time.Time) Cancellation {
	services := make([]ServiceLine, len(booking.Services))
	copy(services, booking.Services)
	return Cancellation{
		CancellationID:   id,
		BookingID:        booking.BookingID,
		PatientName:      booking.PatientName,
		AppointmentDate:  booking.AppointmentDate,
		Services:         services,
		TotalAmount:      booking.TotalAmount,
		Reason:           reason,
		CancellationDate: at,
	}
}
