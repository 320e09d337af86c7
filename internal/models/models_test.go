package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWizardSession_Getters(t *testing.T) {
	now := time.Now()
	s := &WizardSession{
		Form: map[string]interface{}{
			"int64":  int64(42),
			"int":    42,
			"float":  float64(42),
			"string": "hello",
			"bool":   true,
			"date":   "2025-06-01",
			"ts":     "2025-06-01T10:00:00Z",
			"time_t": now,
		},
	}

	t.Run("NilForm", func(t *testing.T) {
		empty := &WizardSession{}
		assert.Equal(t, int64(0), empty.GetInt64("any"))
		assert.Equal(t, "", empty.GetString("any"))
		assert.False(t, empty.GetBool("any"))
		assert.True(t, empty.GetTime("any").IsZero())
	})

	t.Run("GetInt64", func(t *testing.T) {
		assert.Equal(t, int64(42), s.GetInt64("int64"))
		assert.Equal(t, int64(42), s.GetInt64("int"))
		assert.Equal(t, int64(42), s.GetInt64("float"))
		assert.Equal(t, int64(0), s.GetInt64("string"))
	})

	t.Run("GetTime", func(t *testing.T) {
		assert.Equal(t, 2025, s.GetTime("date").Year())
		assert.Equal(t, 10, s.GetTime("ts").Hour())
		assert.Equal(t, now.Unix(), s.GetTime("time_t").Unix())
		assert.True(t, s.GetTime("int").IsZero())
	})

	t.Run("GetStringAndBool", func(t *testing.T) {
		assert.Equal(t, "hello", s.GetString("string"))
		assert.Equal(t, "", s.GetString("int"))
		assert.True(t, s.GetBool("bool"))
		assert.False(t, s.GetBool("string"))
	})

	t.Run("Set", func(t *testing.T) {
		fresh := &WizardSession{}
		fresh.Set("k", "v")
		assert.Equal(t, "v", fresh.GetString("k"))
	})
}

func TestWizardSession_Progress(t *testing.T) {
	s := &WizardSession{CurrentStep: 2, TotalSteps: 4}
	assert.InDelta(t, 50.0, s.Progress(), 0.001)

	assert.Zero(t, (&WizardSession{}).Progress())
}

func TestDeclineCase_Branching(t *testing.T) {
	t.Run("NoValidPayment", func(t *testing.T) {
		d := &DeclineCase{HasValidPayment: false, Reason: ReasonVehicleUnavailable}
		assert.True(t, d.PlainCancel())
		assert.False(t, d.NeedsRefundProof())
	})

	t.Run("PaymentFailed", func(t *testing.T) {
		d := &DeclineCase{HasValidPayment: true, Reason: ReasonPaymentFailed}
		assert.True(t, d.PlainCancel())
		assert.False(t, d.NeedsRefundProof())
	})

	t.Run("GCashAutoRefund", func(t *testing.T) {
		d := &DeclineCase{HasValidPayment: true, Reason: ReasonVehicleUnavailable, PaymentMethod: MethodGCash}
		assert.False(t, d.PlainCancel())
		assert.False(t, d.NeedsRefundProof())
	})

	t.Run("BankNeedsProof", func(t *testing.T) {
		d := &DeclineCase{HasValidPayment: true, Reason: ReasonVehicleUnavailable, PaymentMethod: MethodBank}
		assert.False(t, d.PlainCancel())
		assert.True(t, d.NeedsRefundProof())
	})
}

func TestBooking_Occupies(t *testing.T) {
	for status, want := range map[string]bool{
		StatusPending:   false,
		StatusConfirmed: true,
		StatusActive:    true,
		StatusCompleted: false,
		StatusCancelled: false,
		StatusRefunded:  false,
	} {
		b := &Booking{Status: status}
		assert.Equal(t, want, b.Occupies(), status)
	}
}
