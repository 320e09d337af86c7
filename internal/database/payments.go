package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"karenta/internal/models"
)

func (db *DB) RecordPayment(ctx context.Context, payment *models.Payment) error {
	query := `INSERT INTO payments (booking_id, method, amount, reference, proof_url, recorded_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		payment.BookingID, payment.Method, payment.Amount,
		payment.Reference, payment.ProofURL, now)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	payment.ID = id
	payment.RecordedAt = now
	return nil
}

func (db *DB) GetPaymentsByBooking(ctx context.Context, bookingID int64) ([]*models.Payment, error) {
	query := `SELECT id, booking_id, method, amount, reference, proof_url, recorded_at
              FROM payments WHERE booking_id = ? ORDER BY recorded_at ASC`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		var reference, proof sql.NullString
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Method, &p.Amount, &reference, &proof, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Reference = reference.String
		p.ProofURL = proof.String
		payments = append(payments, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// HasValidPayment reports whether the booking has a positive net paid amount.
// Refunds are stored as negative payments and cancel out.
func (db *DB) HasValidPayment(ctx context.Context, bookingID int64) (bool, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE booking_id = ?`
	var net int64
	if err := db.QueryRowContext(ctx, query, bookingID).Scan(&net); err != nil {
		return false, fmt.Errorf("failed to sum payments: %w", err)
	}
	return net > 0, nil
}
