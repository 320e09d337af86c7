package models

// Booking lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPartial  = "partial"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Refund statuses attached to declined bookings.
const (
	RefundNone      = "none"
	RefundCompleted = "completed"
)

// Payment methods. GCash is the auto-refundable channel.
const (
	MethodGCash    = "gcash"
	MethodBank     = "bank"
	MethodCash     = "cash"
	MethodPayLater = "pay_later"
)

// Drive options.
const (
	DriveSelf       = "self_drive"
	DriveWithDriver = "with_driver"
)

// Decline reasons.
const (
	ReasonPaymentFailed      = "payment_failed"
	ReasonVehicleUnavailable = "vehicle_unavailable"
	ReasonOther              = "other"
)

// Vehicle availability flags.
const (
	VehicleAvailable   = "available"
	VehicleRented      = "rented"
	VehicleMaintenance = "maintenance"
)

// Wizard kinds.
const (
	WizardBooking  = "booking"
	WizardCustomer = "customer"
	WizardDriver   = "driver"
	WizardVehicle  = "vehicle"
	WizardDecline  = "decline"
)

// Transactional email types.
const (
	EmailPending   = "pending"
	EmailConfirmed = "confirmed"
	EmailDeclined  = "declined"
	EmailRefunded  = "refunded"
	EmailReminder  = "reminder"
)

const (
	// DefaultSessionTTL is the Redis lifetime of a wizard session in seconds.
	DefaultSessionTTL = 24 * 60 * 60

	// MaxProofSizeBytes caps refund proof uploads at 5MB.
	MaxProofSizeBytes = 5 << 20

	// DefaultNearbyRadiusKm is used when the caller does not pass a radius.
	DefaultNearbyRadiusKm = 15
	MinNearbyRadiusKm     = 5
	MaxNearbyRadiusKm     = 50

	// WorkerQueueSize is the in-memory side-effect queue capacity.
	WorkerQueueSize = 1000

	// ReminderHour is the local hour pickup reminders go out.
	ReminderHour = 9

	// RateLimitRequests per RateLimitWindow seconds, per actor.
	RateLimitRequests = 20
	RateLimitWindow   = 60
)
