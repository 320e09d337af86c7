package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"karenta/internal/config"
	"karenta/internal/logging"
	"karenta/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking() *models.Booking {
	return &models.Booking{
		ID:            7,
		BookingNumber: "KR-0007",
		CustomerName:  "Juan Dela Cruz",
		CustomerEmail: "juan@example.com",
		VehicleName:   "Vios",
		PickupDate:    time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
		ReturnDate:    time.Date(2030, time.January, 3, 0, 0, 0, 0, time.UTC),
		Status:        models.StatusPending,
		Pricing:       models.Breakdown{TotalPrice: 200000},
	}
}

func newTestClient(url string) *Client {
	return NewClient(config.MailConfig{
		Enabled:     true,
		FunctionURL: url,
		APIKey:      "secret",
		FromName:    "Karenta",
		FromAddress: "bookings@karenta.ph",
	}, logging.Discard())
}

func TestSendBookingEmail(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(sendResponse{Success: true})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.SendBookingEmail(context.Background(), models.EmailPending, testBooking())
	require.NoError(t, err)

	assert.Equal(t, "juan@example.com", got.To)
	assert.Equal(t, models.EmailPending, got.EmailType)
	assert.Equal(t, "KR-0007", got.Variables["booking_number"])
	assert.Equal(t, "2030-01-01", got.Variables["pickup_date"])
	assert.EqualValues(t, 200000, got.Variables["total_price"])
}

func TestSendBookingEmailRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sendResponse{Success: false, Error: "template missing"})
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendBookingEmail(context.Background(), models.EmailConfirmed, testBooking())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template missing")
}

func TestSendBookingEmailServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendBookingEmail(context.Background(), models.EmailConfirmed, testBooking())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSendBookingEmailNoRecipient(t *testing.T) {
	b := testBooking()
	b.CustomerEmail = ""
	err := newTestClient("http://localhost:0").SendBookingEmail(context.Background(), models.EmailPending, b)
	assert.Error(t, err)
}

func TestNoopMailer(t *testing.T) {
	assert.NoError(t, Noop{}.SendBookingEmail(context.Background(), models.EmailPending, testBooking()))
}
