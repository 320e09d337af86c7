package wizard

import (
	"strings"
	"time"

	"karenta/internal/models"
)

// ForKind returns the step definition for a wizard kind.
func ForKind(kind string) (Definition, error) {
	switch kind {
	case models.WizardBooking:
		return BookingDefinition(), nil
	case models.WizardCustomer:
		return CustomerDefinition(), nil
	case models.WizardDriver:
		return DriverDefinition(), nil
	case models.WizardVehicle:
		return VehicleDefinition(), nil
	case models.WizardDecline:
		return DeclineDefinition(), nil
	}
	return Definition{}, ErrUnknownKind
}

// BookingDefinition is the main checkout flow. The customer step is
// skipped when the session already carries an authenticated customer.
func BookingDefinition() Definition {
	return Definition{
		Kind: models.WizardBooking,
		Steps: []Step{
			{
				Name:    "customer",
				Message: "Please provide the customer's name and a valid email address",
				Fields: []Field{
					{Name: "customer_name", Label: "Full name", Kind: KindText, Required: true, MinLen: 2},
					{Name: "customer_email", Label: "Email", Kind: KindText, Required: true, MinLen: 3},
					{Name: "customer_phone", Label: "Phone", Kind: KindText},
				},
				Validate: func(s *models.WizardSession) bool {
					if strings.TrimSpace(s.GetString("customer_name")) == "" {
						return false
					}
					email := s.GetString("customer_email")
					return strings.Contains(email, "@") && strings.Contains(email, ".")
				},
				SkipIf: func(s *models.WizardSession) bool {
					return s.GetBool("authenticated") && s.GetInt64("customer_id") > 0
				},
			},
			{
				Name:    "vehicle",
				Message: "Please choose a vehicle",
				Fields: []Field{
					{Name: "vehicle_id", Label: "Vehicle", Kind: KindNumber, Required: true, Positive: true},
				},
			},
			{
				Name:    "dates",
				Message: "Return date must not be before the pickup date",
				Fields: []Field{
					{Name: "pickup_date", Label: "Pickup date", Kind: KindDate, Required: true},
					{Name: "return_date", Label: "Return date", Kind: KindDate, Required: true},
				},
				Validate: func(s *models.WizardSession) bool {
					pickup := s.GetTime("pickup_date")
					ret := s.GetTime("return_date")
					if pickup.IsZero() || ret.IsZero() {
						return false
					}
					if !futureOrToday(pickup, time.Now()) {
						return false
					}
					return dateOrdered(s, "pickup_date", "return_date")
				},
			},
			{
				Name:    "location",
				Message: "Please choose a pickup location",
				Fields: []Field{
					{Name: "pickup_location", Label: "Pickup location", Kind: KindText, Required: true},
				},
			},
			{
				Name:    "drive_option",
				Message: "Please choose self-drive or with-driver",
				Fields: []Field{
					{Name: "drive_option", Label: "Drive option", Kind: KindSelect, Required: true,
						Options: []string{models.DriveSelf, models.DriveWithDriver}},
				},
			},
			{
				Name:    "payment",
				Message: "Please choose a payment method",
				Fields: []Field{
					{Name: "payment_method", Label: "Payment method", Kind: KindSelect, Required: true,
						Options: []string{models.MethodGCash, models.MethodBank, models.MethodCash, models.MethodPayLater}},
				},
			},
			{
				Name:    "review",
				Message: "",
				// Review has nothing of its own to validate; the submit
				// path re-runs every step.
			},
		},
	}
}

func CustomerDefinition() Definition {
	return Definition{
		Kind: models.WizardCustomer,
		Steps: []Step{
			{
				Name:    "identity",
				Message: "First name and a valid email are required",
				Fields: []Field{
					{Name: "first_name", Label: "First name", Kind: KindText, Required: true, MinLen: 2},
					{Name: "last_name", Label: "Last name", Kind: KindText},
					{Name: "email", Label: "Email", Kind: KindText, Required: true, MinLen: 3},
				},
				Validate: func(s *models.WizardSession) bool {
					if len(strings.TrimSpace(s.GetString("first_name"))) < 2 {
						return false
					}
					return strings.Contains(s.GetString("email"), "@")
				},
			},
			{
				Name:    "contact",
				Message: "Please provide a contact number",
				Fields: []Field{
					{Name: "phone", Label: "Phone", Kind: KindText, Required: true, MinLen: 7},
					{Name: "address", Label: "Address", Kind: KindText},
				},
			},
			{
				Name:    "license",
				Message: "Please provide the driver's license number",
				Fields: []Field{
					{Name: "license_number", Label: "License number", Kind: KindText, Required: true, MinLen: 5},
				},
			},
		},
	}
}

func DriverDefinition() Definition {
	return Definition{
		Kind: models.WizardDriver,
		Steps: []Step{
			{
				Name:    "identity",
				Message: "Driver name is required",
				Fields: []Field{
					{Name: "first_name", Label: "First name", Kind: KindText, Required: true, MinLen: 2},
					{Name: "last_name", Label: "Last name", Kind: KindText},
					{Name: "phone", Label: "Phone", Kind: KindText, Required: true, MinLen: 7},
				},
			},
			{
				Name:    "license",
				Message: "A professional license number is required",
				Fields: []Field{
					{Name: "license_number", Label: "License number", Kind: KindText, Required: true, MinLen: 5},
					{Name: "license_expiry", Label: "License expiry", Kind: KindDate, Required: true},
				},
			},
		},
	}
}

func VehicleDefinition() Definition {
	return Definition{
		Kind: models.WizardVehicle,
		Steps: []Step{
			{
				Name:    "details",
				Message: "Vehicle name and plate number are required",
				Fields: []Field{
					{Name: "name", Label: "Name", Kind: KindText, Required: true, MinLen: 2},
					{Name: "plate_number", Label: "Plate number", Kind: KindText, Required: true, MinLen: 5},
					{Name: "category", Label: "Category", Kind: KindText},
					{Name: "seats", Label: "Seats", Kind: KindNumber, Positive: true},
				},
			},
			{
				Name:    "pricing",
				Message: "Daily rate must be a positive amount",
				Fields: []Field{
					{Name: "daily_rate", Label: "Daily rate", Kind: KindNumber, Required: true, Positive: true},
					{Name: "driver_fee", Label: "Driver fee", Kind: KindNumber},
				},
			},
		},
	}
}

// DeclineDefinition is the admin decline/refund sub-flow. The refund step
// only exists for bookings that need manual refund evidence; plain
// cancellations and GCash auto-refunds skip it.
func DeclineDefinition() Definition {
	return Definition{
		Kind: models.WizardDecline,
		Steps: []Step{
			{
				Name:    "reason",
				Message: "Please pick a reason, and describe it when choosing other",
				Fields: []Field{
					{Name: "reason", Label: "Reason", Kind: KindSelect, Required: true,
						Options: []string{models.ReasonPaymentFailed, models.ReasonVehicleUnavailable, models.ReasonOther}},
					{Name: "reason_detail", Label: "Details", Kind: KindText},
				},
				Validate: func(s *models.WizardSession) bool {
					reason := s.GetString("reason")
					switch reason {
					case models.ReasonPaymentFailed, models.ReasonVehicleUnavailable:
						return true
					case models.ReasonOther:
						return strings.TrimSpace(s.GetString("reason_detail")) != ""
					}
					return false
				},
			},
			{
				Name:    "refund",
				Message: "Refund reference and proof image are required before finalizing",
				Fields: []Field{
					{Name: "refund_reference", Label: "Refund reference", Kind: KindText, Required: true},
					{Name: "refund_proof_url", Label: "Refund proof", Kind: KindText, Required: true},
				},
				SkipIf: func(s *models.WizardSession) bool {
					return !DeclineCaseFrom(s).NeedsRefundProof()
				},
			},
		},
	}
}

// DeclineCaseFrom rebuilds the DeclineCase from session form values. The
// payment facts are stamped into the form when the sub-flow opens.
func DeclineCaseFrom(s *models.WizardSession) *models.DeclineCase {
	return &models.DeclineCase{
		BookingID:       s.GetInt64("booking_id"),
		Reason:          s.GetString("reason"),
		ReasonDetail:    s.GetString("reason_detail"),
		HasValidPayment: s.GetBool("has_valid_payment"),
		PaymentMethod:   s.GetString("payment_method"),
		RefundReference: s.GetString("refund_reference"),
		RefundProofURL:  s.GetString("refund_proof_url"),
	}
}
