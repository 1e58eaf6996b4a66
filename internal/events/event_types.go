package events

import (
	"time"

	"github.com/spec-kit/clinic-records/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered   EventType = "user_registered"
	EventPasswordReset    EventType = "password_reset"
	EventBookingCreated   EventType = "booking_created"
	EventBookingCancelled EventType = "booking_cancelled"
)

// Event represents a domain event emitted by services. Subject is the
// username for identity events and the booking id for booking events.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// PasswordResetPayload payload. AuditErr is set when the reset stood but
// its history entry could not be written.
type PasswordResetPayload struct {
	ResetID  string `json:"reset_id,omitempty"`
	AuditErr string `json:"audit_error,omitempty"`
}

// BookingCreatedPayload payload.
type BookingCreatedPayload struct {
	AppointmentDate string  `json:"appointment_date"`
	ServiceCount    int     `json:"service_count"`
	TotalAmount     float64 `json:"total_amount"`
}

// BookingCancelledPayload payload.
type BookingCancelledPayload struct {
	CancellationID string               `json:"cancellation_id"`
	Reason         string               `json:"reason,omitempty"`
	Status         domain.BookingStatus `json:"booking_status"`
}
