package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type VehiclesRepo interface {
	CreateVehicle(ctx context.Context, vehicle *Vehicle, accessToken string) (*Vehicle, error)
	GetVehicleByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	ListVehicles(ctx context.Context, filters map[string]string, offset, limit int) ([]*Vehicle, int, error)
	UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*Vehicle, error)
	DeleteVehicle(ctx context.Context, id uuid.UUID, accessToken string) error
}

func (su *SupabaseRepo) CreateVehicle(ctx context.Context, vehicle *Vehicle, accessToken string) (*Vehicle, error) {
	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	vehicleData := map[string]interface{}{
		"id":            vehicle.Id,
		"brand":         vehicle.Brand,
		"model":         vehicle.Model,
		"year":          vehicle.Year,
		"category":      vehicle.Category,
		"description":   vehicle.Description,
		"images":        vehicle.Images,
		"badge":         vehicle.Badge,
		"transmission":  vehicle.Transmission,
		"fuel":          vehicle.Fuel,
		"seats":         vehicle.Seats,
		"doors":         vehicle.Doors,
		"price_per_day": vehicle.PricePerDay,
		"status":        vehicle.Status,
		"created_at":    vehicle.CreatedAt,
		"updated_at":    vehicle.UpdatedAt,
	}

	data, count, err := client.
		From(VehiclesTable).
		Insert(vehicleData, false, "", "", "exact").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %v", err)
	}

	var created []Vehicle
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created vehicle: %v", err)
	}
	if count == 0 || len(created) == 0 {
		return nil, fmt.Errorf("vehicle insert returned no rows")
	}

	return &created[0], nil
}

func (su *SupabaseRepo) GetVehicleByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	data, count, err := su.supabaseClient.
		From(VehiclesTable).
		Select("*", "exact", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %v", err)
	}
	if count == 0 {
		return nil, nil
	}

	// Supabase returns an array even for single results
	var vehicles []Vehicle
	if err := json.Unmarshal(data, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vehicle rows: %v", err)
	}
	if len(vehicles) == 0 {
		return nil, nil
	}

	vehicle := &vehicles[0]
	vehicle.PresentBadge(time.Now())
	return vehicle, nil
}

func (su *SupabaseRepo) ListVehicles(ctx context.Context, filters map[string]string, offset, limit int) ([]*Vehicle, int, error) {
	query := su.supabaseClient.
		From(VehiclesTable).
		Select("*", "exact", false)

	for column, value := range filters {
		query = query.Eq(column, value)
	}

	data, count, err := query.Range(offset, offset+limit-1, "").Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %v", err)
	}
	if count == 0 {
		return []*Vehicle{}, 0, nil
	}

	var rows []Vehicle
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal vehicles: %v", err)
	}

	now := time.Now()
	vehicles := make([]*Vehicle, 0, len(rows))
	for i := range rows {
		v := rows[i]
		// Expired badges are not served to clients
		v.PresentBadge(now)
		vehicles = append(vehicles, &v)
	}

	return vehicles, int(count), nil
}

func (su *SupabaseRepo) UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*Vehicle, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	fields["updated_at"] = time.Now()

	data, count, err := client.
		From(VehiclesTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %v", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("vehicle not found")
	}

	var updated []Vehicle
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated vehicle: %v", err)
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("vehicle not found")
	}

	return &updated[0], nil
}

func (su *SupabaseRepo) DeleteVehicle(ctx context.Context, id uuid.UUID, accessToken string) error {
	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	_, _, err := client.
		From(VehiclesTable).
		Delete("", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %v", err)
	}

	return nil
}
