package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"karenta/internal/models"
)

const customerColumns = `id, first_name, last_name, email, phone, address, license_number, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	var last, phone, address, license sql.NullString
	err := row.Scan(&c.ID, &c.FirstName, &last, &c.Email, &phone, &address, &license, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.LastName = last.String
	c.Phone = phone.String
	c.Address = address.String
	c.LicenseNumber = license.String
	return &c, nil
}

func (db *DB) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `INSERT INTO customers (first_name, last_name, email, phone, address, license_number, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		customer.FirstName, customer.LastName, customer.Email,
		customer.Phone, customer.Address, customer.LicenseNumber, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: customers.email") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	customer.ID = id
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return nil
}

func (db *DB) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `UPDATE customers SET first_name = ?, last_name = ?, email = ?, phone = ?,
              address = ?, license_number = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		customer.FirstName, customer.LastName, customer.Email,
		customer.Phone, customer.Address, customer.LicenseNumber, time.Now(), customer.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: customers.email") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	c, err := scanCustomer(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (db *DB) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = ?`
	c, err := scanCustomer(db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by email: %w", err)
	}
	return c, nil
}

func (db *DB) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}
