package service

import (
	"context"
	"time"

	"karenta/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockStore) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockStore) UpdateBookingStatusWithVersion(ctx context.Context, id, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockStore) UpdateBookingPaymentStatus(ctx context.Context, id int64, ps string) error {
	return m.Called(ctx, id, ps).Error(0)
}
func (m *mockStore) ApplyDecline(ctx context.Context, id, v int64, o models.DeclineOutcome) error {
	return m.Called(ctx, id, v, o).Error(0)
}
func (m *mockStore) CheckAvailability(ctx context.Context, vid int64, p, r time.Time) (bool, error) {
	args := m.Called(ctx, vid, p, r)
	return args.Bool(0), args.Error(1)
}
func (m *mockStore) GetBookingsByDateRange(ctx context.Context, s, e time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) GetBookingsByStatus(ctx context.Context, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) GetCustomerBookings(ctx context.Context, cid int64) ([]*models.Booking, error) {
	args := m.Called(ctx, cid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) GetPickupsOn(ctx context.Context, day time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) GetDailyBookings(ctx context.Context, s, e time.Time) (map[string][]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]*models.Booking), args.Error(1)
}

func (m *mockStore) GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}
func (m *mockStore) GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vehicle), args.Error(1)
}
func (m *mockStore) UpdateVehicleStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockStore) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}
func (m *mockStore) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}
func (m *mockStore) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *mockStore) RecordPayment(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockStore) GetPaymentsByBooking(ctx context.Context, bid int64) ([]*models.Payment, error) {
	args := m.Called(ctx, bid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}
func (m *mockStore) HasValidPayment(ctx context.Context, bid int64) (bool, error) {
	args := m.Called(ctx, bid)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	return m.Called(ctx, task).Error(0)
}
func (m *mockStore) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncTask), args.Error(1)
}
func (m *mockStore) UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, next *time.Time) error {
	return m.Called(ctx, id, status, errMsg, next).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueEmail(ctx context.Context, et string, b *models.Booking) error {
	return m.Called(ctx, et, b).Error(0)
}
func (m *mockWorker) EnqueueVehicleFlip(ctx context.Context, vid int64, status string) error {
	return m.Called(ctx, vid, status).Error(0)
}
func (m *mockWorker) EnqueueSheetUpsert(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockWorker) EnqueueSheetStatus(ctx context.Context, bid int64, status string) error {
	return m.Called(ctx, bid, status).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyBookingCreated(b *models.Booking) { m.Called(b) }
func (m *mockNotifier) NotifyBookingDeclined(b *models.Booking, refunded bool) {
	m.Called(b, refunded)
}
