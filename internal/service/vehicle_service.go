package service

import (
	"context"

	"karenta/internal/domain"
	"karenta/internal/geo"
	"karenta/internal/models"

	"github.com/rs/zerolog"
)

// VehicleService answers catalog queries. The fleet lives in the store;
// pickup points come from the static yaml catalog loaded at startup.
type VehicleService struct {
	store        domain.Store
	pickupPoints []models.PickupPoint
	logger       *zerolog.Logger
}

func NewVehicleService(store domain.Store, pickupPoints []models.PickupPoint, logger *zerolog.Logger) *VehicleService {
	return &VehicleService{
		store:        store,
		pickupPoints: pickupPoints,
		logger:       logger,
	}
}

func (s *VehicleService) GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	return s.store.GetActiveVehicles(ctx)
}

func (s *VehicleService) GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	return s.store.GetVehicleByID(ctx, id)
}

func (s *VehicleService) MarkRented(ctx context.Context, id int64) error {
	return s.store.UpdateVehicleStatus(ctx, id, models.VehicleRented)
}

func (s *VehicleService) MarkAvailable(ctx context.Context, id int64) error {
	return s.store.UpdateVehicleStatus(ctx, id, models.VehicleAvailable)
}

// NearbyPickupPoints filters the static catalog by distance from origin.
// Without an origin the whole catalog comes back in file order.
func (s *VehicleService) NearbyPickupPoints(ctx context.Context, origin *geo.Coordinate, radiusKm float64, query string) ([]geo.NearbyPoint, error) {
	return geo.Nearest(s.pickupPoints, origin, radiusKm, query), nil
}
