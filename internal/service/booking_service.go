package service

import (
	"context"
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/events"
	"github.com/spec-kit/clinic-records/internal/repository"
	"github.com/spec-kit/clinic-records/pkg/util"
)

// BookingService is the booking ledger plus the cancellation log. Every
// query rescans the underlying log.
type BookingService struct {
	bookings      repository.BookingRepository
	cancellations repository.CancellationRepository
	catalog       domain.Catalog
	ids           *domain.IDGenerator
	validate      *validator.Validate
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// BookingDependencies bundles repositories for booking service.
type BookingDependencies struct {
	BookingRepo      repository.BookingRepository
	CancellationRepo repository.CancellationRepository
	Catalog          *domain.Catalog
	IDs              *domain.IDGenerator
	Validator        *validator.Validate
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// BookingCreateInput describes booking creation payload. Quantities and
// subtotals are taken as given; TotalAmount is not checked against them.
type BookingCreateInput struct {
	PatientName     string
	AppointmentDate string               `validate:"required"`
	Services        []domain.ServiceLine `validate:"required,min=1,dive"`
	TotalAmount     float64
}

// ServiceSelection is one row of the booking form.
type ServiceSelection struct {
	ServiceName string
	Quantity    int
}

// Quote is a priced cart ready to pass to CreateBooking.
type Quote struct {
	Services    []domain.ServiceLine
	TotalAmount float64
}

// NewBookingService builds the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	s := &BookingService{
		bookings:      deps.BookingRepo,
		cancellations: deps.CancellationRepo,
		catalog:       domain.DefaultCatalog,
		ids:           deps.IDs,
		validate:      deps.Validator,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
	if deps.Catalog != nil {
		s.catalog = *deps.Catalog
	}
	if s.ids == nil {
		s.ids = domain.NewIDGenerator(nil, false)
	}
	if s.validate == nil {
		s.validate = validator.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Catalog returns the services that can be quoted.
func (s *BookingService) Catalog() []domain.CatalogItem {
	return s.catalog.Items()
}

// Quote prices selections against the catalog. Rows with quantity zero are
// skipped.
func (s *BookingService) Quote(selections []ServiceSelection) (Quote, error) {
	q := Quote{Services: []domain.ServiceLine{}}
	for _, sel := range selections {
		if sel.Quantity == 0 {
			continue
		}
		if sel.Quantity < 0 {
			return Quote{}, util.NewInvalidInput("quantity must not be negative",
				map[string]any{"service_name": sel.ServiceName, "quantity": sel.Quantity})
		}
		price, ok := s.catalog.Price(sel.ServiceName)
		if !ok {
			return Quote{}, util.NewInvalidInput("unknown service",
				map[string]any{"service_name": sel.ServiceName})
		}
		subtotal := price * float64(sel.Quantity)
		q.Services = append(q.Services, domain.ServiceLine{
			ServiceName:  sel.ServiceName,
			Quantity:     sel.Quantity,
			LineSubtotal: subtotal,
		})
		q.TotalAmount += subtotal
	}
	if len(q.Services) == 0 {
		return Quote{}, util.NewInvalidInput("select at least one service", nil)
	}
	return q, nil
}

// CreateBooking appends a confirmed booking and returns it, id included.
func (s *BookingService) CreateBooking(ctx context.Context, input BookingCreateInput) (domain.Booking, error) {
	if isBlank(input.AppointmentDate) {
		return domain.Booking{}, util.NewInvalidInput("appointment date is required", nil)
	}
	if len(input.Services) == 0 {
		return domain.Booking{}, util.NewInvalidInput("select at least one service", nil)
	}
	if err := s.validate.Struct(input); err != nil {
		return domain.Booking{}, validationError(err)
	}
	if math.IsNaN(input.TotalAmount) || math.IsInf(input.TotalAmount, 0) {
		return domain.Booking{}, util.NewInvalidInput("total amount must be a finite number", nil)
	}

	services := make([]domain.ServiceLine, len(input.Services))
	copy(services, input.Services)

	at := s.ids.Now()
	booking := domain.Booking{
		BookingID:       s.ids.IDAt(domain.BookingIDPrefix, at),
		PatientName:     input.PatientName,
		AppointmentDate: input.AppointmentDate,
		Services:        services,
		TotalAmount:     input.TotalAmount,
		CreatedAt:       at,
		Status:          domain.BookingStatusConfirmed,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return domain.Booking{}, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventBookingCreated,
		Subject:   booking.BookingID,
		Actor:     booking.PatientName,
		Timestamp: at,
		Payload: events.BookingCreatedPayload{
			AppointmentDate: booking.AppointmentDate,
			ServiceCount:    len(booking.Services),
			TotalAmount:     booking.TotalAmount,
		},
	})
	return booking, nil
}

// ListBookings returns patientName's bookings in append order. Cancelled
// bookings are still listed with the status they were created with.
func (s *BookingService) ListBookings(ctx context.Context, patientName string) ([]domain.Booking, error) {
	return s.bookings.ListByPatient(ctx, patientName)
}

// FindBooking looks up one of patientName's bookings by id. When ids
// collide the first match is returned.
func (s *BookingService) FindBooking(ctx context.Context, patientName, bookingID string) (domain.Booking, error) {
	bookings, err := s.bookings.ListByPatient(ctx, patientName)
	if err != nil {
		return domain.Booking{}, err
	}
	for _, b := range bookings {
		if b.BookingID == bookingID {
			return b, nil
		}
	}
	return domain.Booking{}, util.NewInvalidInput("booking not found",
		map[string]any{"patient_name": patientName, "booking_id": bookingID})
}

// CancelBooking appends a cancellation carrying a copy of booking. The
// booking record itself is left as it is. Repeated calls append repeated
// cancellations.
func (s *BookingService) CancelBooking(ctx context.Context, booking domain.Booking, reason string) (domain.Cancellation, error) {
	at := s.ids.Now()
	cancellation := domain.NewCancellation(s.ids.IDAt(domain.CancellationIDPrefix, at), booking, reason, at)
	if err := s.cancellations.Create(ctx, cancellation); err != nil {
		return domain.Cancellation{}, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventBookingCancelled,
		Subject:   booking.BookingID,
		Actor:     booking.PatientName,
		Timestamp: at,
		Payload: events.BookingCancelledPayload{
			CancellationID: cancellation.CancellationID,
			Reason:         reason,
			Status:         booking.Status,
		},
	})
	return cancellation, nil
}

// ListCancellations returns patientName's cancellations in append order.
func (s *BookingService) ListCancellations(ctx context.Context, patientName string) ([]domain.Cancellation, error) {
	return s.cancellations.ListByPatient(ctx, patientName)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return util.NewInvalidInput(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Namespace()] = fe.Tag()
	}
	return util.NewInvalidInput("invalid booking", details)
}
