package worker

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"karenta/internal/database"
	"karenta/internal/logging"
	"karenta/internal/models"
)

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	mailer := &fakeMailer{}
	w := NewSyncQueueWorker(db, mailer, sheets, nil, RetryPolicy{}, logging.Discard())

	booking := activeBooking(t, db)

	ctx := context.Background()
	if err := w.EnqueueSheetUpsert(ctx, booking); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if sheets.upsertCalls != 1 {
		t.Fatalf("expected upsert call, got %d", sheets.upsertCalls)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("boom")}
	w := NewSyncQueueWorker(db, &fakeMailer{}, sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, logging.Discard())

	booking := activeBooking(t, db)

	ctx := context.Background()
	if err := w.EnqueueSheetUpsert(ctx, booking); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "retry" {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("fatal")}
	w := NewSyncQueueWorker(db, &fakeMailer{}, sheets, nil, RetryPolicy{MaxRetries: 1}, logging.Discard())

	booking := activeBooking(t, db)

	ctx := context.Background()
	w.EnqueueSheetUpsert(ctx, booking)
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "failed" {
		t.Fatalf("expected status=failed, got %s", status)
	}
}

func TestHandleTask(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	mailer := &fakeMailer{}
	w := NewSyncQueueWorker(db, mailer, sheets, nil, RetryPolicy{MaxRetries: 3}, logging.Discard())

	ctx := context.Background()

	t.Run("Email", func(t *testing.T) {
		booking := &models.Booking{ID: 1, CustomerEmail: "x@y.ph"}
		err := w.handleTask(ctx, TaskEmail, taskPayload{Booking: booking, EmailType: models.EmailConfirmed})
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if mailer.calls != 1 || mailer.lastType != models.EmailConfirmed {
			t.Fatalf("expected 1 confirmed email, got %d %s", mailer.calls, mailer.lastType)
		}
	})

	t.Run("EmailMissingBooking", func(t *testing.T) {
		if err := w.handleTask(ctx, TaskEmail, taskPayload{EmailType: models.EmailPending}); err == nil {
			t.Fatalf("expected error for missing booking")
		}
	})

	t.Run("VehicleFlip", func(t *testing.T) {
		seedTestVehicle(t, db, 10)
		err := w.handleTask(ctx, TaskVehicleFlip, taskPayload{VehicleID: 10, VehicleStatus: models.VehicleRented})
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		v, err := db.GetVehicleByID(ctx, 10)
		if err != nil {
			t.Fatalf("load vehicle: %v", err)
		}
		if v.Status != models.VehicleRented {
			t.Fatalf("expected rented, got %s", v.Status)
		}
	})

	t.Run("SheetUpsert", func(t *testing.T) {
		booking := &models.Booking{ID: 1, VehicleName: "Vios"}
		if err := w.handleTask(ctx, TaskSheetUpsert, taskPayload{Booking: booking}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.upsertCalls != 1 {
			t.Fatalf("expected 1 upsert call, got %d", sheets.upsertCalls)
		}
	})

	t.Run("SheetStatus", func(t *testing.T) {
		if err := w.handleTask(ctx, TaskSheetStatus, taskPayload{BookingID: 123, Status: "confirmed"}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.statusCalls != 1 {
			t.Fatalf("expected 1 status call, got %d", sheets.statusCalls)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if err := w.handleTask(ctx, "mystery", taskPayload{}); err == nil {
			t.Fatalf("expected error for unknown task type")
		}
	})
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
}

func TestEnqueueValidation(t *testing.T) {
	db := newTestDB(t)
	w := NewSyncQueueWorker(db, &fakeMailer{}, &fakeSheets{}, nil, RetryPolicy{}, logging.Discard())
	ctx := context.Background()

	if err := w.EnqueueEmail(ctx, models.EmailPending, nil); err == nil {
		t.Fatalf("expected error for nil booking")
	}
	if err := w.EnqueueVehicleFlip(ctx, 0, models.VehicleRented); err == nil {
		t.Fatalf("expected error for missing vehicle id")
	}
	if err := w.EnqueueSheetStatus(ctx, 1, ""); err == nil {
		t.Fatalf("expected error for missing status")
	}
}

func TestReminderSchedulerQueuesTomorrow(t *testing.T) {
	db := newTestDB(t)
	w := NewSyncQueueWorker(db, &fakeMailer{}, &fakeSheets{}, nil, RetryPolicy{}, logging.Discard())

	ctx := context.Background()
	seedTestVehicle(t, db, 1)

	tomorrow := time.Now().AddDate(0, 0, 1)
	booking := &models.Booking{
		BookingNumber: "KR-1001",
		CustomerID:    1,
		CustomerName:  "Juan",
		CustomerEmail: "juan@example.com",
		VehicleID:     1,
		VehicleName:   "Vios",
		PickupDate:    time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC),
		ReturnDate:    time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 2),
		DriveOption:   models.DriveSelf,
		PaymentMethod: models.MethodGCash,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
	}
	if err := db.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if err := db.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, models.StatusConfirmed); err != nil {
		t.Fatalf("confirm booking: %v", err)
	}

	scheduler := NewReminderScheduler(db, w, "09:00", logging.Discard())
	scheduler.QueueTomorrowReminders(ctx)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	if err != nil {
		t.Fatalf("pending tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 reminder task, got %d", len(tasks))
	}
	if tasks[0].TaskType != TaskEmail {
		t.Fatalf("expected email task, got %s", tasks[0].TaskType)
	}
}

func TestReminderTimeParsing(t *testing.T) {
	db := newTestDB(t)
	w := NewSyncQueueWorker(db, &fakeMailer{}, &fakeSheets{}, nil, RetryPolicy{}, logging.Discard())

	cases := map[string]int{
		"":      models.ReminderHour,
		"07:30": 7,
		"junk":  models.ReminderHour,
		"99:00": models.ReminderHour,
	}
	for input, want := range cases {
		s := NewReminderScheduler(db, w, input, logging.Discard())
		if s.hour != want {
			t.Errorf("reminder time %q: expected hour %d, got %d", input, want, s.hour)
		}
	}
}

// Helpers

type fakeSheets struct {
	err         error
	upsertCalls int
	statusCalls int
}

func (f *fakeSheets) UpsertBooking(ctx context.Context, b *models.Booking) error {
	f.upsertCalls++
	return f.err
}

func (f *fakeSheets) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	f.statusCalls++
	return f.err
}

func (f *fakeSheets) ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error {
	return f.err
}

type fakeMailer struct {
	err      error
	calls    int
	lastType string
}

func (f *fakeMailer) SendBookingEmail(ctx context.Context, emailType string, booking *models.Booking) error {
	f.calls++
	f.lastType = emailType
	return f.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.db")
	db, err := database.NewDB(path, logging.Discard())
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTestVehicle(t *testing.T, db *database.DB, id int64) {
	t.Helper()
	err := db.SeedVehicles(context.Background(), []models.Vehicle{
		{ID: id, Name: "Vios", PlateNumber: "ABC-0001", DailyRate: 100000, IsActive: true},
	})
	if err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
}

func activeBooking(t *testing.T, db *database.DB) *models.Booking {
	t.Helper()
	seedTestVehicle(t, db, 99)
	pickup := time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC)
	b := &models.Booking{
		BookingNumber: "KR-9000",
		CustomerID:    1,
		CustomerName:  "Tester",
		CustomerEmail: "tester@example.com",
		VehicleID:     99,
		VehicleName:   "Vios",
		PickupDate:    pickup,
		ReturnDate:    pickup.AddDate(0, 0, 2),
		DriveOption:   models.DriveSelf,
		PaymentMethod: models.MethodGCash,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
	}
	if err := db.CreateBooking(context.Background(), b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry sql.NullTime) {
	t.Helper()
	row := db.QueryRowContext(context.Background(), `SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id)
	if err := row.Scan(&status, &retryCount, &nextRetry); err != nil {
		t.Fatalf("scan task: %v", err)
	}
	return status, retryCount, nextRetry
}
