package pricing

import (
	"errors"
	"time"

	"karenta/internal/models"
)

var ErrReturnBeforePickup = errors.New("return date is before pickup date")

// Inputs holds everything a quote depends on. Amounts are centavos.
type Inputs struct {
	DailyRate      int64
	Pickup         time.Time
	Return         time.Time
	ExtrasPrice    int64
	DiscountAmount int64
	DriverCost     int64
	LocationCost   int64
}

// RentalDays counts billable days for a date range. A same-day rental bills
// one day; any partial day rounds up.
func RentalDays(pickup, ret time.Time) int {
	diff := ret.Sub(pickup)
	if diff <= 0 {
		return 1
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// Total computes the payable amount. Discounts may never push the total
// below zero.
func Total(dailyRate int64, days int, extras, discount, driverCost, locationCost int64) int64 {
	total := dailyRate*int64(days) + extras + driverCost + locationCost - discount
	if total < 0 {
		return 0
	}
	return total
}

// Quote produces the full breakdown for a booking draft. It is pure; callers
// recompute it whenever the vehicle, date range or fee inputs change.
func Quote(in Inputs) (models.Breakdown, error) {
	if in.Return.Before(in.Pickup) {
		return models.Breakdown{}, ErrReturnBeforePickup
	}

	days := RentalDays(in.Pickup, in.Return)
	base := in.DailyRate * int64(days)

	return models.Breakdown{
		RentalDays:     days,
		BasePrice:      base,
		ExtrasPrice:    in.ExtrasPrice,
		DiscountAmount: in.DiscountAmount,
		DriverCost:     in.DriverCost,
		LocationCost:   in.LocationCost,
		TotalPrice:     Total(in.DailyRate, days, in.ExtrasPrice, in.DiscountAmount, in.DriverCost, in.LocationCost),
	}, nil
}
