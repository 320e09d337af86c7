package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"karenta/internal/models"
)

const bookingColumns = `id, booking_number, customer_id, customer_name, customer_email,
    vehicle_id, vehicle_name, pickup_date, return_date, pickup_location, return_location,
    drive_option, payment_method, status, payment_status, refund_status,
    refund_reference, refund_proof_url, decline_reason,
    rental_days, base_price, extras_price, discount_amount, driver_cost, location_cost, total_price,
    notes, created_at, updated_at, version`

const dateLayout = "2006-01-02"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var pickup, ret string
	var refundRef, refundProof, declineReason, notes, paymentMethod, customerEmail sql.NullString
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.CustomerID, &b.CustomerName, &customerEmail,
		&b.VehicleID, &b.VehicleName, &pickup, &ret, &b.PickupLocation, &b.ReturnLocation,
		&b.DriveOption, &paymentMethod, &b.Status, &b.PaymentStatus, &b.RefundStatus,
		&refundRef, &refundProof, &declineReason,
		&b.Pricing.RentalDays, &b.Pricing.BasePrice, &b.Pricing.ExtrasPrice,
		&b.Pricing.DiscountAmount, &b.Pricing.DriverCost, &b.Pricing.LocationCost, &b.Pricing.TotalPrice,
		&notes, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.CustomerEmail = customerEmail.String
	b.PaymentMethod = paymentMethod.String
	b.RefundReference = refundRef.String
	b.RefundProofURL = refundProof.String
	b.DeclineReason = declineReason.String
	b.Notes = notes.String
	if b.PickupDate, err = time.Parse(dateLayout, pickup); err != nil {
		return nil, fmt.Errorf("failed to parse pickup_date %q: %w", pickup, err)
	}
	if b.ReturnDate, err = time.Parse(dateLayout, ret); err != nil {
		return nil, fmt.Errorf("failed to parse return_date %q: %w", ret, err)
	}
	return &b, nil
}

// overlapCount counts occupying bookings for a vehicle whose date range
// intersects [pickup, ret]. Pending bookings reserve the vehicle too.
const overlapQuery = `SELECT COUNT(*) FROM bookings
    WHERE vehicle_id = ?
    AND status IN (?, ?, ?)
    AND pickup_date <= ? AND return_date >= ?`

// CheckAvailability reports whether the vehicle is free for the whole range.
func (db *DB) CheckAvailability(ctx context.Context, vehicleID int64, pickup, ret time.Time) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, overlapQuery, vehicleID,
		models.StatusPending, models.StatusConfirmed, models.StatusActive,
		ret.Format(dateLayout), pickup.Format(dateLayout)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return count == 0, nil
}

// CreateBooking inserts a booking, verifying availability inside the same
// transaction so two submissions cannot double-book a vehicle.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var count int
	err = tx.QueryRowContext(ctx, overlapQuery, booking.VehicleID,
		models.StatusPending, models.StatusConfirmed, models.StatusActive,
		booking.ReturnDate.Format(dateLayout), booking.PickupDate.Format(dateLayout)).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if count > 0 {
		return ErrNotAvailable
	}

	query := `INSERT INTO bookings (
            booking_number, customer_id, customer_name, customer_email,
            vehicle_id, vehicle_name, pickup_date, return_date, pickup_location, return_location,
            drive_option, payment_method, status, payment_status, refund_status,
            refund_reference, refund_proof_url, decline_reason,
            rental_days, base_price, extras_price, discount_amount, driver_cost, location_cost, total_price,
            notes, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		booking.BookingNumber,
		booking.CustomerID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.VehicleID,
		booking.VehicleName,
		booking.PickupDate.Format(dateLayout),
		booking.ReturnDate.Format(dateLayout),
		booking.PickupLocation,
		booking.ReturnLocation,
		booking.DriveOption,
		booking.PaymentMethod,
		booking.Status,
		booking.PaymentStatus,
		models.RefundNone,
		booking.RefundReference,
		booking.RefundProofURL,
		booking.DeclineReason,
		booking.Pricing.RentalDays,
		booking.Pricing.BasePrice,
		booking.Pricing.ExtrasPrice,
		booking.Pricing.DiscountAmount,
		booking.Pricing.DriverCost,
		booking.Pricing.LocationCost,
		booking.Pricing.TotalPrice,
		booking.Notes,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.RefundStatus = models.RefundNone
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (db *DB) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_number = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by number: %w", err)
	}
	return b, nil
}

// UpdateBookingStatusWithVersion applies an optimistic-concurrency status
// update; ErrVersionConflict means someone changed the booking first.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (db *DB) UpdateBookingPaymentStatus(ctx context.Context, id int64, paymentStatus string) error {
	query := `UPDATE bookings SET payment_status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, paymentStatus, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyDecline finalizes a decline in one versioned update so a concurrent
// confirm cannot race the cancellation.
func (db *DB) ApplyDecline(ctx context.Context, id, version int64, outcome models.DeclineOutcome) error {
	query := `UPDATE bookings SET
            status = ?, payment_status = ?, refund_status = ?,
            refund_reference = ?, refund_proof_url = ?, decline_reason = ?,
            updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		outcome.Status, outcome.PaymentStatus, outcome.RefundStatus,
		outcome.RefundReference, outcome.RefundProofURL, outcome.DeclineReason,
		time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("failed to apply decline: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE pickup_date >= ? AND pickup_date <= ? ORDER BY pickup_date ASC, id ASC`
	return db.queryBookings(ctx, query, start.Format(dateLayout), end.Format(dateLayout))
}

func (db *DB) GetBookingsByStatus(ctx context.Context, status string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, status)
}

func (db *DB) GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, customerID)
}

// GetPickupsOn returns occupying bookings whose pickup date is the given day,
// used for reminder emails.
func (db *DB) GetPickupsOn(ctx context.Context, day time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE pickup_date = ? AND status IN (?, ?) ORDER BY id ASC`
	return db.queryBookings(ctx, query, day.Format(dateLayout), models.StatusConfirmed, models.StatusActive)
}

// GetDailyBookings groups bookings by pickup date string for the schedule
// export grid.
func (db *DB) GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]*models.Booking, error) {
	bookings, err := db.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	daily := make(map[string][]*models.Booking)
	for _, b := range bookings {
		key := b.PickupDate.Format(dateLayout)
		daily[key] = append(daily[key], b)
	}
	return daily, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}
