package domain

import "time"

// BookingStatus enumerates booking states as written to bookings.log.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ServiceLine is one priced service inside a booking.
type ServiceLine struct {
	ServiceName  string  `json:"service_name" validate:"required"`
	Quantity     int     `json:"quantity" validate:"gte=1"`
	LineSubtotal float64 `json:"line_subtotal"`
}

// Booking is an appointment as appended to bookings.log. It is never
// rewritten; a cancellation is a separate record.
type Booking struct {
	BookingID       string        `json:"booking_id"`
	PatientName     string        `json:"patient_name"`
	AppointmentDate string        `json:"appointment_date"`
	Services        []ServiceLine `json:"services"`
	TotalAmount     float64       `json:"total_amount"`
	CreatedAt       time.Time     `json:"created_at"`
	Status          BookingStatus `json:"status"`
}
