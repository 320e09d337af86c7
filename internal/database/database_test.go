package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"karenta/internal/logging"
	"karenta/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedVehicle(t *testing.T, db *DB, id int64, rate int64) {
	t.Helper()
	err := db.SeedVehicles(context.Background(), []models.Vehicle{
		{ID: id, Name: "Vios", PlateNumber: "ABC-1234", DailyRate: rate, IsActive: true},
	})
	require.NoError(t, err)
}

func testBooking(vehicleID int64, pickup, ret time.Time) *models.Booking {
	return &models.Booking{
		BookingNumber: "KR-0001",
		CustomerID:    1,
		CustomerName:  "Juan Dela Cruz",
		CustomerEmail: "juan@example.com",
		VehicleID:     vehicleID,
		VehicleName:   "Vios",
		PickupDate:    pickup,
		ReturnDate:    ret,
		DriveOption:   models.DriveSelf,
		PaymentMethod: models.MethodGCash,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		Pricing: models.Breakdown{
			RentalDays: 2,
			BasePrice:  200000,
			TotalPrice: 200000,
		},
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedVehicle(t, db, 1, 100000)

	pickup := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	ret := pickup.AddDate(0, 0, 2)

	b := testBooking(1, pickup, ret)
	require.NoError(t, db.CreateBooking(ctx, b))
	assert.NotZero(t, b.ID)
	assert.EqualValues(t, 1, b.Version)
	assert.Equal(t, models.RefundNone, b.RefundStatus)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "KR-0001", got.BookingNumber)
	assert.Equal(t, int64(200000), got.Pricing.TotalPrice)
	assert.Equal(t, pickup, got.PickupDate)
	assert.Equal(t, models.MethodGCash, got.PaymentMethod)

	byNumber, err := db.GetBookingByNumber(ctx, "KR-0001")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byNumber.ID)
}

func TestGetBookingNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetBooking(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingOverlapRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedVehicle(t, db, 1, 100000)

	pickup := time.Date(2030, time.June, 10, 0, 0, 0, 0, time.UTC)
	ret := pickup.AddDate(0, 0, 3)
	require.NoError(t, db.CreateBooking(ctx, testBooking(1, pickup, ret)))

	t.Run("OverlappingRangeRejected", func(t *testing.T) {
		second := testBooking(1, pickup.AddDate(0, 0, 1), ret.AddDate(0, 0, 2))
		second.BookingNumber = "KR-0002"
		assert.ErrorIs(t, db.CreateBooking(ctx, second), ErrNotAvailable)
	})

	t.Run("DisjointRangeAccepted", func(t *testing.T) {
		third := testBooking(1, ret.AddDate(0, 0, 1), ret.AddDate(0, 0, 3))
		third.BookingNumber = "KR-0003"
		assert.NoError(t, db.CreateBooking(ctx, third))
	})

	t.Run("CheckAvailability", func(t *testing.T) {
		free, err := db.CheckAvailability(ctx, 1, pickup, ret)
		require.NoError(t, err)
		assert.False(t, free)

		free, err = db.CheckAvailability(ctx, 1, pickup.AddDate(0, 1, 0), ret.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.True(t, free)
	})
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedVehicle(t, db, 1, 100000)

	pickup := time.Date(2030, time.March, 1, 0, 0, 0, 0, time.UTC)
	b := testBooking(1, pickup, pickup.AddDate(0, 0, 1))
	require.NoError(t, db.CreateBooking(ctx, b))

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusConfirmed))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.EqualValues(t, 2, got.Version)

	// Stale version must conflict.
	err = db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestApplyDecline(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedVehicle(t, db, 1, 100000)

	pickup := time.Date(2030, time.April, 1, 0, 0, 0, 0, time.UTC)
	b := testBooking(1, pickup, pickup.AddDate(0, 0, 1))
	require.NoError(t, db.CreateBooking(ctx, b))

	outcome := models.DeclineOutcome{
		Status:          models.StatusRefunded,
		PaymentStatus:   models.PaymentRefunded,
		RefundStatus:    models.RefundCompleted,
		RefundReference: "REF-123",
		RefundProofURL:  "https://files.example.test/proofs/x.jpg",
		DeclineReason:   models.ReasonVehicleUnavailable,
	}
	require.NoError(t, db.ApplyDecline(ctx, b.ID, 1, outcome))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefunded, got.Status)
	assert.Equal(t, models.RefundCompleted, got.RefundStatus)
	assert.Equal(t, "REF-123", got.RefundReference)
	assert.Equal(t, models.ReasonVehicleUnavailable, got.DeclineReason)

	assert.ErrorIs(t, db.ApplyDecline(ctx, b.ID, 1, outcome), ErrVersionConflict)
}

func TestBookingQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedVehicle(t, db, 1, 100000)
	seedVehicle(t, db, 2, 150000)

	base := time.Date(2030, time.May, 1, 0, 0, 0, 0, time.UTC)
	for i, vid := range []int64{1, 2} {
		b := testBooking(vid, base.AddDate(0, 0, i*7), base.AddDate(0, 0, i*7+2))
		b.BookingNumber = "KR-000" + string(rune('5'+i))
		require.NoError(t, db.CreateBooking(ctx, b))
	}

	t.Run("ByDateRange", func(t *testing.T) {
		got, err := db.GetBookingsByDateRange(ctx, base, base.AddDate(0, 0, 3))
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("ByStatus", func(t *testing.T) {
		got, err := db.GetBookingsByStatus(ctx, models.StatusPending)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("DailyBookings", func(t *testing.T) {
		daily, err := db.GetDailyBookings(ctx, base, base.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.Len(t, daily, 2)
		assert.Len(t, daily[base.Format("2006-01-02")], 1)
	})

	t.Run("PickupsOnRequiresOccupyingStatus", func(t *testing.T) {
		got, err := db.GetPickupsOn(ctx, base)
		require.NoError(t, err)
		assert.Empty(t, got)

		all, err := db.GetBookingsByStatus(ctx, models.StatusPending)
		require.NoError(t, err)
		for _, b := range all {
			if b.PickupDate.Equal(base) {
				require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, models.StatusConfirmed))
			}
		}

		got, err = db.GetPickupsOn(ctx, base)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
