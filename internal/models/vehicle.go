package models

import "time"

// Vehicle is a rentable unit. DailyRate is centavos per day.
type Vehicle struct {
	ID           int64     `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	PlateNumber  string    `yaml:"plate_number" json:"plate_number"`
	Category     string    `yaml:"category" json:"category"`
	Seats        int       `yaml:"seats" json:"seats"`
	Transmission string    `yaml:"transmission" json:"transmission"`
	DailyRate    int64     `yaml:"daily_rate" json:"daily_rate"`
	DriverFee    int64     `yaml:"driver_fee" json:"driver_fee"`
	Status       string    `yaml:"status" json:"status"`
	SortOrder    int64     `yaml:"sort_order" json:"sort_order"`
	IsActive     bool      `yaml:"is_active" json:"is_active"`
	CreatedAt    time.Time `yaml:"-" json:"created_at"`
	UpdatedAt    time.Time `yaml:"-" json:"updated_at"`
}
