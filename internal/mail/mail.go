// Package mail sends transactional booking emails through the hosted
// mail-sending function. Sending is always a best-effort side effect; the
// sync worker owns retries.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"karenta/internal/config"
	"karenta/internal/models"

	"github.com/rs/zerolog"
)

// Client posts one templated email per call to the mail function.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	fromName   string
	fromAddr   string
	logger     *zerolog.Logger
}

func NewClient(cfg config.MailConfig, logger *zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        cfg.FunctionURL,
		apiKey:     cfg.APIKey,
		fromName:   cfg.FromName,
		fromAddr:   cfg.FromAddress,
		logger:     logger,
	}
}

type sendRequest struct {
	To        string                 `json:"to"`
	FromName  string                 `json:"from_name"`
	FromEmail string                 `json:"from_email"`
	EmailType string                 `json:"email_type"`
	Variables map[string]interface{} `json:"variables"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendBookingEmail renders and sends the template for emailType with the
// booking's details as variables.
func (c *Client) SendBookingEmail(ctx context.Context, emailType string, booking *models.Booking) error {
	if booking.CustomerEmail == "" {
		return fmt.Errorf("booking %d has no customer email", booking.ID)
	}

	req := sendRequest{
		To:        booking.CustomerEmail,
		FromName:  c.fromName,
		FromEmail: c.fromAddr,
		EmailType: emailType,
		Variables: map[string]interface{}{
			"booking_number": booking.BookingNumber,
			"customer_name":  booking.CustomerName,
			"vehicle_name":   booking.VehicleName,
			"pickup_date":    booking.PickupDate.Format("2006-01-02"),
			"return_date":    booking.ReturnDate.Format("2006-01-02"),
			"total_price":    booking.Pricing.TotalPrice,
			"status":         booking.Status,
		},
	}
	if booking.DeclineReason != "" {
		req.Variables["decline_reason"] = booking.DeclineReason
	}
	if booking.RefundReference != "" {
		req.Variables["refund_reference"] = booking.RefundReference
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call mail function: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail function returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result sendResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to decode mail response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("mail function rejected email: %s", result.Error)
	}

	c.logger.Debug().
		Str("email_type", emailType).
		Str("booking_number", booking.BookingNumber).
		Msg("Email sent")
	return nil
}

// Noop is the mailer used when email is disabled in config.
type Noop struct{}

func (Noop) SendBookingEmail(ctx context.Context, emailType string, booking *models.Booking) error {
	return nil
}
