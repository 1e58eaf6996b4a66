package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-records/internal/events"
)

// NotificationService reports domain events. Nothing leaves the process;
// each event becomes a log line.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventPasswordReset, n.handlePasswordReset)
	n.dispatcher.Subscribe(events.EventBookingCreated, n.handleBookingCreated)
	n.dispatcher.Subscribe(events.EventBookingCancelled, n.handleBookingCancelled)
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("username", event.Subject))
	return nil
}

func (n *NotificationService) handlePasswordReset(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("username", event.Subject), zap.Any("payload", event.Payload)}
	if p, ok := event.Payload.(events.PasswordResetPayload); ok && p.AuditErr != "" {
		n.logger.Warn("PasswordReset", fields...)
		return nil
	}
	n.logger.Info("PasswordReset", fields...)
	return nil
}

func (n *NotificationService) handleBookingCreated(_ context.Context, event events.Event) error {
	n.logger.Info("BookingCreated",
		zap.String("booking_id", event.Subject),
		zap.String("patient_name", event.Actor),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleBookingCancelled(_ context.Context, event events.Event) error {
	n.logger.Info("BookingCancelled",
		zap.String("booking_id", event.Subject),
		zap.String("patient_name", event.Actor),
		zap.Any("payload", event.Payload))
	return nil
}
