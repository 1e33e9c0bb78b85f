package models

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleRented      VehicleStatus = "rented"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Badge is the marketing ribbon shown on a vehicle card ("New", "-20%", ...).
// An expired badge is dropped from API responses but kept in the row so the
// dashboard can re-activate it.
type Badge struct {
	Label     string     `json:"label,omitempty"`
	Color     string     `json:"color,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (b Badge) Active(now time.Time) bool {
	if b.Label == "" {
		return false
	}
	if b.ExpiresAt == nil {
		return true
	}
	return now.Before(*b.ExpiresAt)
}

type Vehicle struct {
	Id uuid.UUID `db:"id" json:"id,omitempty"`

	// MARKETING & CORE INFO
	Brand       string   `db:"brand" json:"brand,omitempty" validate:"required"`
	Model       string   `db:"model" json:"model,omitempty" validate:"required"`
	Year        int      `db:"year" json:"year,omitempty" validate:"required,gte=1990"`
	Category    string   `db:"category" json:"category,omitempty" validate:"required,oneof=economy compact suv van luxury"`
	Description string   `db:"description" json:"description,omitempty"`
	Images      []string `db:"images" json:"images,omitempty"`
	Badge       Badge    `db:"badge" json:"badge,omitempty"`

	// SPECS
	Transmission string `db:"transmission" json:"transmission,omitempty" validate:"required,oneof=manual automatic"`
	Fuel         string `db:"fuel" json:"fuel,omitempty" validate:"required,oneof=petrol diesel hybrid electric"`
	Seats        int    `db:"seats" json:"seats,omitempty" validate:"required,gte=2,lte=9"`
	Doors        int    `db:"doors" json:"doors,omitempty" validate:"required,gte=2,lte=5"`

	// PRICING & STATUS
	PricePerDay float64       `db:"price_per_day" json:"price_per_day,omitempty" validate:"required,gt=0"`
	Status      VehicleStatus `db:"status" json:"status,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PresentBadge blanks an expired badge before the vehicle is served. The row
// keeps the badge so the dashboard can re-activate it.
func (v *Vehicle) PresentBadge(now time.Time) {
	if !v.Badge.Active(now) {
		v.Badge = Badge{}
	}
}
