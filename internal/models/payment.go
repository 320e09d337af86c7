package models

import "time"

// Payment is a recorded payment (or refund) against a booking.
// Negative Amount means money returned to the customer.
type Payment struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"booking_id"`
	Method     string    `json:"method"`
	Amount     int64     `json:"amount"`
	Reference  string    `json:"reference,omitempty"`
	ProofURL   string    `json:"proof_url,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
