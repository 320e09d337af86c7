package models

// PickupPoint is a static catalog entry for a vehicle hand-off site.
// The catalog is loaded from yaml at startup and never mutated.
type PickupPoint struct {
	ID       int64   `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Category string  `yaml:"category" json:"category"`
	Lat      float64 `yaml:"lat" json:"lat"`
	Lng      float64 `yaml:"lng" json:"lng"`
}
