package service

import (
	"context"
	"errors"
	"strings"

	"karenta/internal/domain"
	"karenta/internal/models"

	"github.com/rs/zerolog"
)

var ErrCustomerEmailRequired = errors.New("customer email is required")

type CustomerService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewCustomerService(store domain.Store, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{store: store, logger: logger}
}

// SaveCustomer creates or updates depending on whether the record has an ID.
// Emails are normalized to lowercase so the unique index catches case-only
// duplicates.
func (s *CustomerService) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	customer.Email = strings.TrimSpace(strings.ToLower(customer.Email))
	if customer.Email == "" {
		return ErrCustomerEmailRequired
	}
	if customer.ID > 0 {
		return s.store.UpdateCustomer(ctx, customer)
	}
	return s.store.CreateCustomer(ctx, customer)
}

func (s *CustomerService) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return s.store.GetCustomerByID(ctx, id)
}

func (s *CustomerService) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.store.GetCustomerByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *CustomerService) GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error) {
	return s.store.GetCustomerBookings(ctx, customerID)
}
