package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"karenta/internal/database"
	"karenta/internal/domain"
	"karenta/internal/events"
	"karenta/internal/metrics"
	"karenta/internal/models"
	"karenta/internal/pricing"
	"karenta/internal/wizard"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSubmitInProgress guards against double submission of one session.
var ErrSubmitInProgress = errors.New("submission already in progress")

// ValidationError carries a step's human message so the API can surface it
// verbatim without contacting the store.
type ValidationError struct {
	Step    int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type BookingService struct {
	store          domain.Store
	sessions       domain.SessionRepository
	eventBus       domain.EventPublisher
	syncWorker     domain.SyncWorker
	notifier       domain.Notifier
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(
	store domain.Store,
	sessions domain.SessionRepository,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	notifier domain.Notifier,
	maxAdvanceDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 365
	}
	return &BookingService{
		store:          store,
		sessions:       sessions,
		eventBus:       eventBus,
		syncWorker:     syncWorker,
		notifier:       notifier,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

// ValidateBookingDate rejects past pickups and pickups further out than the
// advance-booking window.
func (s *BookingService) ValidateBookingDate(date time.Time) error {
	if date.Before(time.Now().AddDate(0, 0, -1)) {
		return database.ErrPastDate
	}
	if date.After(time.Now().AddDate(0, 0, s.maxAdvanceDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// Quote recomputes the pricing breakdown from whatever the session holds.
// It is called on every vehicle or date change; a partial form quotes as
// zero rather than erroring.
func (s *BookingService) Quote(ctx context.Context, session *models.WizardSession) (models.Breakdown, error) {
	vehicleID := session.GetInt64("vehicle_id")
	pickup := session.GetTime("pickup_date")
	ret := session.GetTime("return_date")
	if vehicleID == 0 || pickup.IsZero() || ret.IsZero() {
		return models.Breakdown{}, nil
	}

	vehicle, err := s.store.GetVehicleByID(ctx, vehicleID)
	if err != nil {
		return models.Breakdown{}, err
	}

	in := pricing.Inputs{
		DailyRate:      vehicle.DailyRate,
		Pickup:         pickup,
		Return:         ret,
		ExtrasPrice:    session.GetInt64("extras_price"),
		DiscountAmount: session.GetInt64("discount_amount"),
		LocationCost:   session.GetInt64("location_cost"),
	}
	if session.GetString("drive_option") == models.DriveWithDriver {
		in.DriverCost = vehicle.DriverFee * int64(pricing.RentalDays(pickup, ret))
	}

	return pricing.Quote(in)
}

// Submit finalizes a completed booking wizard: full-form validation, one
// atomic insert, then the best-effort side effects. A store failure is
// returned verbatim and queues nothing; the session stays open for retry.
func (s *BookingService) Submit(ctx context.Context, session *models.WizardSession) (*models.Booking, error) {
	if session.Submitting {
		return nil, ErrSubmitInProgress
	}
	// A concurrent request works from its own copy of the session, so the
	// in-flight mark has to live in the repository before the store is touched.
	if current, err := s.sessions.GetSession(ctx, session.ActorID, session.Kind); err == nil && current != nil && current.Submitting {
		return nil, ErrSubmitInProgress
	}
	session.Submitting = true
	if err := s.sessions.SetSession(ctx, session); err != nil {
		session.Submitting = false
		return nil, fmt.Errorf("failed to mark session in flight: %w", err)
	}
	defer func() {
		session.Submitting = false
		if err := s.sessions.SetSession(ctx, session); err != nil {
			s.logger.Error().Err(err).Int64("actor_id", session.ActorID).Msg("failed to clear session in-flight mark")
		}
	}()

	ctrl := wizard.NewController(wizard.BookingDefinition(), session)
	if step, msg, ok := ctrl.ValidateAll(); !ok {
		metrics.IncWizardSubmission(models.WizardBooking, "invalid")
		return nil, &ValidationError{Step: step, Message: msg}
	}

	customer, err := s.resolveCustomer(ctx, session)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.store.GetVehicleByID(ctx, session.GetInt64("vehicle_id"))
	if err != nil {
		return nil, err
	}

	breakdown, err := s.Quote(ctx, session)
	if err != nil {
		return nil, err
	}

	status := session.GetString("status")
	if status == "" {
		status = models.StatusPending
	}

	booking := &models.Booking{
		BookingNumber:  newBookingNumber(),
		CustomerID:     customer.ID,
		CustomerName:   customer.FullName(),
		CustomerEmail:  customer.Email,
		VehicleID:      vehicle.ID,
		VehicleName:    vehicle.Name,
		PickupDate:     session.GetTime("pickup_date"),
		ReturnDate:     session.GetTime("return_date"),
		PickupLocation: session.GetString("pickup_location"),
		DriveOption:    session.GetString("drive_option"),
		PaymentMethod:  session.GetString("payment_method"),
		Status:         status,
		PaymentStatus:  models.PaymentPending,
		Pricing:        breakdown,
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		metrics.IncWizardSubmission(models.WizardBooking, "error")
		return nil, err
	}

	metrics.IncBookingCreated()
	metrics.IncWizardSubmission(models.WizardBooking, "success")
	s.publishEvent(events.EventBookingCreated, booking)
	s.notifier.NotifyBookingCreated(booking)

	// Best-effort side effects. Failures log and never unwind the insert.
	emailType := models.EmailPending
	if booking.Occupies() {
		emailType = models.EmailConfirmed
	}
	if err := s.syncWorker.EnqueueEmail(ctx, emailType, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to queue booking email")
	}
	if err := s.syncWorker.EnqueueSheetUpsert(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to queue sheet upsert")
	}
	if booking.Occupies() {
		if err := s.syncWorker.EnqueueVehicleFlip(ctx, booking.VehicleID, models.VehicleRented); err != nil {
			s.logger.Error().Err(err).Int64("vehicle_id", booking.VehicleID).Msg("failed to queue vehicle flip")
		}
	}

	return booking, nil
}

// resolveCustomer reuses the session's customer when one is referenced,
// otherwise finds or creates one by email.
func (s *BookingService) resolveCustomer(ctx context.Context, session *models.WizardSession) (*models.Customer, error) {
	if id := session.GetInt64("customer_id"); id > 0 {
		return s.store.GetCustomerByID(ctx, id)
	}

	email := strings.TrimSpace(strings.ToLower(session.GetString("customer_email")))
	existing, err := s.store.GetCustomerByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	first, last := splitName(session.GetString("customer_name"))
	customer := &models.Customer{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     session.GetString("customer_phone"),
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// ConfirmBooking moves a pending booking to confirmed, which triggers the
// confirmation email and marks the vehicle rented.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, version int64) error {
	if err := s.store.UpdateBookingStatusWithVersion(ctx, bookingID, version, models.StatusConfirmed); err != nil {
		return err
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to reload confirmed booking")
		return nil
	}

	s.publishEvent(events.EventBookingConfirmed, booking)
	if err := s.syncWorker.EnqueueEmail(ctx, models.EmailConfirmed, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to queue confirmed email")
	}
	if err := s.syncWorker.EnqueueSheetStatus(ctx, bookingID, models.StatusConfirmed); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to queue sheet status")
	}
	if err := s.syncWorker.EnqueueVehicleFlip(ctx, booking.VehicleID, models.VehicleRented); err != nil {
		s.logger.Error().Err(err).Int64("vehicle_id", booking.VehicleID).Msg("failed to queue vehicle flip")
	}

	return nil
}

// CompleteBooking closes out a rental and releases the vehicle.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, version int64) error {
	if err := s.store.UpdateBookingStatusWithVersion(ctx, bookingID, version, models.StatusCompleted); err != nil {
		return err
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to reload completed booking")
		return nil
	}

	s.publishEvent(events.EventBookingCompleted, booking)
	if err := s.syncWorker.EnqueueSheetStatus(ctx, bookingID, models.StatusCompleted); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to queue sheet status")
	}
	if err := s.syncWorker.EnqueueVehicleFlip(ctx, booking.VehicleID, models.VehicleAvailable); err != nil {
		s.logger.Error().Err(err).Int64("vehicle_id", booking.VehicleID).Msg("failed to queue vehicle flip")
	}

	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	return s.store.GetBookingByNumber(ctx, number)
}

func (s *BookingService) CheckAvailability(ctx context.Context, vehicleID int64, pickup, ret time.Time) (bool, error) {
	return s.store.CheckAvailability(ctx, vehicleID, pickup, ret)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.store.GetBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error) {
	return s.store.GetDailyBookings(ctx, start, end)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		CustomerID:    booking.CustomerID,
		CustomerName:  booking.CustomerName,
		VehicleID:     booking.VehicleID,
		VehicleName:   booking.VehicleName,
		Status:        booking.Status,
		PickupDate:    booking.PickupDate,
		ReturnDate:    booking.ReturnDate,
		TotalPrice:    booking.Pricing.TotalPrice,
		DeclineReason: booking.DeclineReason,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

// newBookingNumber builds a short human-quotable reference like
// KR-20300611-4F2A.
func newBookingNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("KR-%s-%s", time.Now().Format("20060102"), suffix)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
