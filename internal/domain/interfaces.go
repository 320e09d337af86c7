package domain

import (
	"context"
	"io"
	"time"

	"karenta/internal/geo"
	"karenta/internal/models"
)

type Store interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
	UpdateBookingPaymentStatus(ctx context.Context, id int64, paymentStatus string) error
	ApplyDecline(ctx context.Context, id, version int64, outcome models.DeclineOutcome) error
	CheckAvailability(ctx context.Context, vehicleID int64, pickup, ret time.Time) (bool, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetBookingsByStatus(ctx context.Context, status string) ([]*models.Booking, error)
	GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error)
	GetPickupsOn(ctx context.Context, day time.Time) ([]*models.Booking, error)
	GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error)

	GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
	GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, id int64, status string) error

	CreateCustomer(ctx context.Context, customer *models.Customer) error
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)

	RecordPayment(ctx context.Context, payment *models.Payment) error
	GetPaymentsByBooking(ctx context.Context, bookingID int64) ([]*models.Payment, error)
	HasValidPayment(ctx context.Context, bookingID int64) (bool, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

type SessionRepository interface {
	GetSession(ctx context.Context, actorID int64, kind string) (*models.WizardSession, error)
	SetSession(ctx context.Context, session *models.WizardSession) error
	ClearSession(ctx context.Context, actorID int64, kind string) error
	CheckRateLimit(ctx context.Context, actorID int64, limit int, window time.Duration) (bool, error)
}

type SessionManager interface {
	StartWizard(ctx context.Context, actorID int64, kind string) (*models.WizardSession, error)
	GetSession(ctx context.Context, actorID int64, kind string) (*models.WizardSession, error)
	SaveSession(ctx context.Context, session *models.WizardSession) error
	ClearSession(ctx context.Context, actorID int64, kind string) error
	CheckRateLimit(ctx context.Context, actorID int64) (bool, error)
}

type Mailer interface {
	SendBookingEmail(ctx context.Context, emailType string, booking *models.Booking) error
}

type ProofStorage interface {
	SaveProof(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
	ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error
}

type SyncWorker interface {
	EnqueueEmail(ctx context.Context, emailType string, booking *models.Booking) error
	EnqueueVehicleFlip(ctx context.Context, vehicleID int64, status string) error
	EnqueueSheetUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueSheetStatus(ctx context.Context, bookingID int64, status string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers operational alerts to the managers channel. Delivery is
// best effort and must never fail a booking write.
type Notifier interface {
	NotifyBookingCreated(booking *models.Booking)
	NotifyBookingDeclined(booking *models.Booking, refunded bool)
}

type BookingService interface {
	Quote(ctx context.Context, session *models.WizardSession) (models.Breakdown, error)
	Submit(ctx context.Context, session *models.WizardSession) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, version int64) error
	CompleteBooking(ctx context.Context, bookingID, version int64) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error)
	CheckAvailability(ctx context.Context, vehicleID int64, pickup, ret time.Time) (bool, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error)
}

type DeclineService interface {
	BuildCase(ctx context.Context, bookingID int64, reason string) (*models.DeclineCase, error)
	Decline(ctx context.Context, session *models.WizardSession) (*models.Booking, error)
}

type VehicleService interface {
	GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error)
	GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
	MarkRented(ctx context.Context, id int64) error
	MarkAvailable(ctx context.Context, id int64) error
	NearbyPickupPoints(ctx context.Context, origin *geo.Coordinate, radiusKm float64, query string) ([]geo.NearbyPoint, error)
}

type CustomerService interface {
	SaveCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error)
}
