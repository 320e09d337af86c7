package service

import (
	"context"
	"errors"

	"karenta/internal/domain"
	"karenta/internal/events"
	"karenta/internal/metrics"
	"karenta/internal/models"
	"karenta/internal/wizard"

	"github.com/rs/zerolog"
)

var (
	ErrNotDeclinable     = errors.New("booking is not in a declinable status")
	ErrRefundProofNeeded = errors.New("refund reference and proof are required")
)

// DeclineService runs the decline/refund flow for pending bookings. The
// outcome is written in one versioned update; the notification emails and
// sheet sync ride the sync queue afterwards.
type DeclineService struct {
	store      domain.Store
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	notifier   domain.Notifier
	logger     *zerolog.Logger
}

func NewDeclineService(
	store domain.Store,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	notifier domain.Notifier,
	logger *zerolog.Logger,
) *DeclineService {
	return &DeclineService{
		store:      store,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		notifier:   notifier,
		logger:     logger,
	}
}

// BuildCase loads the booking and stamps the payment facts into a fresh
// decline case. The wizard uses those facts to decide whether the refund
// step appears at all.
func (s *DeclineService) BuildCase(ctx context.Context, bookingID int64, reason string) (*models.DeclineCase, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusPending && booking.Status != models.StatusConfirmed {
		return nil, ErrNotDeclinable
	}

	hasPayment, err := s.store.HasValidPayment(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return &models.DeclineCase{
		BookingID:       bookingID,
		Reason:          reason,
		HasValidPayment: hasPayment,
		PaymentMethod:   booking.PaymentMethod,
	}, nil
}

// Decline finalizes the decline wizard. On any failure the session is left
// untouched so the operator retries without re-entering the refund details.
func (s *DeclineService) Decline(ctx context.Context, session *models.WizardSession) (*models.Booking, error) {
	ctrl := wizard.NewController(wizard.DeclineDefinition(), session)
	if step, msg, ok := ctrl.ValidateAll(); !ok {
		metrics.IncWizardSubmission(models.WizardDecline, "invalid")
		return nil, &ValidationError{Step: step, Message: msg}
	}

	declineCase := wizard.DeclineCaseFrom(session)

	booking, err := s.store.GetBooking(ctx, declineCase.BookingID)
	if err != nil {
		return nil, err
	}

	outcome, refunded, err := s.resolveOutcome(declineCase)
	if err != nil {
		metrics.IncWizardSubmission(models.WizardDecline, "invalid")
		return nil, err
	}

	if err := s.store.ApplyDecline(ctx, booking.ID, booking.Version, outcome); err != nil {
		metrics.IncWizardSubmission(models.WizardDecline, "error")
		return nil, err
	}

	metrics.IncWizardSubmission(models.WizardDecline, "success")
	if refunded {
		metrics.IncBookingDeclined("refunded")
	} else {
		metrics.IncBookingDeclined("cancelled")
	}

	booking, err = s.store.GetBooking(ctx, booking.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", declineCase.BookingID).Msg("failed to reload declined booking")
		return nil, err
	}

	eventType := events.EventBookingDeclined
	emailType := models.EmailDeclined
	if refunded {
		eventType = events.EventBookingRefunded
		emailType = models.EmailRefunded
	}
	s.publishEvent(eventType, booking)
	s.notifier.NotifyBookingDeclined(booking, refunded)

	if err := s.syncWorker.EnqueueEmail(ctx, emailType, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to queue decline email")
	}
	if err := s.syncWorker.EnqueueSheetStatus(ctx, booking.ID, booking.Status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to queue sheet status")
	}
	if err := s.syncWorker.EnqueueVehicleFlip(ctx, booking.VehicleID, models.VehicleAvailable); err != nil {
		s.logger.Error().Err(err).Int64("vehicle_id", booking.VehicleID).Msg("failed to queue vehicle flip")
	}

	return booking, nil
}

// resolveOutcome maps a decline case onto the terminal booking record.
// Three terminal shapes exist: a plain cancel with no refund, a gateway
// auto-refund with no proof, and a manual refund that must carry both the
// reference and the proof image.
func (s *DeclineService) resolveOutcome(c *models.DeclineCase) (models.DeclineOutcome, bool, error) {
	reason := c.Reason
	if reason == models.ReasonOther && c.ReasonDetail != "" {
		reason = c.ReasonDetail
	}

	if c.PlainCancel() {
		return models.DeclineOutcome{
			Status:        models.StatusCancelled,
			PaymentStatus: models.PaymentPending,
			RefundStatus:  models.RefundNone,
			DeclineReason: reason,
		}, false, nil
	}

	if !c.NeedsRefundProof() {
		return models.DeclineOutcome{
			Status:        models.StatusRefunded,
			PaymentStatus: models.PaymentRefunded,
			RefundStatus:  models.RefundCompleted,
			DeclineReason: reason,
		}, true, nil
	}

	if c.RefundReference == "" || c.RefundProofURL == "" {
		return models.DeclineOutcome{}, false, ErrRefundProofNeeded
	}
	return models.DeclineOutcome{
		Status:          models.StatusRefunded,
		PaymentStatus:   models.PaymentRefunded,
		RefundStatus:    models.RefundCompleted,
		RefundReference: c.RefundReference,
		RefundProofURL:  c.RefundProofURL,
		DeclineReason:   reason,
	}, true, nil
}

func (s *DeclineService) publishEvent(eventType string, booking *models.Booking) {
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
