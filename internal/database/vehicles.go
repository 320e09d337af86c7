package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"karenta/internal/models"
)

const vehicleColumns = `id, name, plate_number, category, seats, transmission,
    daily_rate, driver_fee, status, sort_order, is_active, created_at, updated_at`

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	var v models.Vehicle
	var plate, category, transmission sql.NullString
	err := row.Scan(&v.ID, &v.Name, &plate, &category, &v.Seats, &transmission,
		&v.DailyRate, &v.DriverFee, &v.Status, &v.SortOrder, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.PlateNumber = plate.String
	v.Category = category.String
	v.Transmission = transmission.String
	return &v, nil
}

// SeedVehicles upserts the static vehicle catalog. Catalog rows never
// overwrite the live status column, which the booking flow owns.
func (db *DB) SeedVehicles(ctx context.Context, vehicles []models.Vehicle) error {
	query := `INSERT INTO vehicles (id, name, plate_number, category, seats, transmission,
            daily_rate, driver_fee, status, sort_order, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            plate_number = excluded.plate_number,
            category = excluded.category,
            seats = excluded.seats,
            transmission = excluded.transmission,
            daily_rate = excluded.daily_rate,
            driver_fee = excluded.driver_fee,
            sort_order = excluded.sort_order,
            is_active = excluded.is_active,
            updated_at = excluded.updated_at`
	now := time.Now()
	for i := range vehicles {
		v := &vehicles[i]
		status := v.Status
		if status == "" {
			status = models.VehicleAvailable
		}
		if _, err := db.ExecContext(ctx, query,
			v.ID, v.Name, v.PlateNumber, v.Category, v.Seats, v.Transmission,
			v.DailyRate, v.DriverFee, status, v.SortOrder, v.IsActive, now, now); err != nil {
			return fmt.Errorf("failed to seed vehicle %d: %w", v.ID, err)
		}
	}
	return nil
}

func (db *DB) GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	v, err := scanVehicle(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

func (db *DB) GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE is_active = 1
              ORDER BY sort_order ASC, id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicles: %w", err)
	}
	return vehicles, nil
}

func (db *DB) UpdateVehicleStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE vehicles SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
