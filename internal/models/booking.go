package models

import "time"

// Booking is a persisted rental booking. JSON tags mirror the column names so
// the API payloads and the sheet mirror stay consistent with the store.
type Booking struct {
	ID              int64     `json:"id"`
	BookingNumber   string    `json:"booking_number"`
	CustomerID      int64     `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	VehicleID       int64     `json:"vehicle_id"`
	VehicleName     string    `json:"vehicle_name"`
	PickupDate      time.Time `json:"pickup_date"`
	ReturnDate      time.Time `json:"return_date"`
	PickupLocation  string    `json:"pickup_location"`
	ReturnLocation  string    `json:"return_location"`
	DriveOption     string    `json:"drive_option"`
	PaymentMethod   string    `json:"payment_method"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	RefundStatus    string    `json:"refund_status"`
	RefundReference string    `json:"refund_reference,omitempty"`
	RefundProofURL  string    `json:"refund_proof_url,omitempty"`
	DeclineReason   string    `json:"decline_reason,omitempty"`
	Pricing         Breakdown `json:"pricing"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

// Breakdown is the derived pricing snapshot stored alongside a booking.
// Amounts are centavos.
type Breakdown struct {
	RentalDays     int   `json:"rental_days"`
	BasePrice      int64 `json:"base_price"`
	ExtrasPrice    int64 `json:"extras_price"`
	DiscountAmount int64 `json:"discount_amount"`
	DriverCost     int64 `json:"driver_cost"`
	LocationCost   int64 `json:"location_cost"`
	TotalPrice     int64 `json:"total_price"`
}

// Occupies reports whether the booking status implies the vehicle is out.
func (b *Booking) Occupies() bool {
	return b.Status == StatusConfirmed || b.Status == StatusActive
}
