package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"karenta/internal/database"
	"karenta/internal/logging"
	"karenta/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "export.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBookingSchedule(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SeedVehicles(ctx, []models.Vehicle{
		{ID: 1, Name: "Vios", PlateNumber: "ABC-0001", DailyRate: 100000, IsActive: true},
	}))

	pickup := time.Date(2031, time.March, 10, 0, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		BookingNumber: "KR-20310310-AA11",
		CustomerID:    1,
		CustomerName:  "Maria Santos",
		CustomerEmail: "maria@example.ph",
		VehicleID:     1,
		VehicleName:   "Vios",
		PickupDate:    pickup,
		ReturnDate:    pickup.AddDate(0, 0, 2),
		DriveOption:   models.DriveSelf,
		PaymentMethod: models.MethodGCash,
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentPaid,
	}
	require.NoError(t, db.CreateBooking(ctx, booking))

	exporter := NewExporter(db, t.TempDir(), logging.Discard())
	path, err := exporter.BookingSchedule(ctx, pickup, pickup.AddDate(0, 0, 3))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Contains(t, rows[2][0], "Vios")

	// Pickup day cell carries the booking; the day after return is free.
	cell, err := f.GetCellValue("Schedule", "B3")
	require.NoError(t, err)
	assert.Contains(t, cell, "KR-20310310-AA11")
	assert.Contains(t, cell, "Maria Santos")

	free, err := f.GetCellValue("Schedule", "E3")
	require.NoError(t, err)
	assert.Equal(t, "free", free)
}

func TestCustomerList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.CreateCustomer(ctx, &models.Customer{
		FirstName: "Maria", LastName: "Santos", Email: "maria@example.ph", Phone: "+639171234567",
	}))

	exporter := NewExporter(db, t.TempDir(), logging.Discard())
	path, err := exporter.CustomerList(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Customers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Maria", rows[1][1])
	assert.Equal(t, "maria@example.ph", rows[1][3])
}
