package models

// DeclineCase carries the state of an admin decline/refund flow for one
// pending booking. It lives only inside the decline wizard session.
type DeclineCase struct {
	BookingID       int64  `json:"booking_id"`
	Reason          string `json:"reason"`
	ReasonDetail    string `json:"reason_detail,omitempty"`
	HasValidPayment bool   `json:"has_valid_payment"`
	PaymentMethod   string `json:"payment_method"`
	RefundReference string `json:"refund_reference,omitempty"`
	RefundProofURL  string `json:"refund_proof_url,omitempty"`
}

// NeedsRefundProof reports whether finalizing this case requires a manual
// refund reference and proof image. Payments through the auto-refundable
// channel (GCash) are refunded by the gateway, so no proof is collected.
func (d *DeclineCase) NeedsRefundProof() bool {
	if !d.HasValidPayment || d.Reason == ReasonPaymentFailed {
		return false
	}
	return d.PaymentMethod != MethodGCash
}

// PlainCancel reports whether the case finalizes as a cancellation with no
// refund at all.
func (d *DeclineCase) PlainCancel() bool {
	return !d.HasValidPayment || d.Reason == ReasonPaymentFailed
}

// DeclineOutcome is the terminal record of a decline/refund flow, written to
// the booking row in one versioned update.
type DeclineOutcome struct {
	Status          string
	PaymentStatus   string
	RefundStatus    string
	RefundReference string
	RefundProofURL  string
	DeclineReason   string
}
