package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openroad/api/internal/connect"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/models"
)

type VehicleService struct {
	vehiclesRepo models.VehiclesRepo
}

func NewVehicleService(vehiclesRepo models.VehiclesRepo) *VehicleService {
	return &VehicleService{
		vehiclesRepo: vehiclesRepo,
	}
}

func (vs *VehicleService) CreateVehicle(ctx context.Context, vehicle *models.Vehicle, accessToken string) (*models.Vehicle, error) {
	if err := models.Validate.Struct(vehicle); err != nil {
		return nil, fmt.Errorf("invalid vehicle data provided: %v", err)
	}

	now := time.Now()
	if vehicle.Id == uuid.Nil {
		vehicle.Id = uuid.New()
	}

	// Upload images first if any
	var uploadedPublicIDs []string
	if len(vehicle.Images) > 0 {
		uploadChan := make(chan struct {
			urls      []string
			publicIDs []string
		}, 1)
		errorChan := make(chan error, 1)

		go func() {
			urls, publicIDs, uploadErr := helpers.UploadImages(ctx, connect.Cld, vehicle.Images, helpers.VehicleFolder)
			if uploadErr != nil {
				errorChan <- uploadErr
				return
			}
			uploadChan <- struct {
				urls      []string
				publicIDs []string
			}{urls, publicIDs}
		}()

		// Wait for upload with timeout
		select {
		case result := <-uploadChan:
			vehicle.Images = result.urls
			uploadedPublicIDs = result.publicIDs
		case uploadErr := <-errorChan:
			return nil, fmt.Errorf("failed to upload images: %v", uploadErr)
		case <-time.After(30 * time.Second):
			return nil, fmt.Errorf("image upload timeout")
		}
	}

	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleAvailable
	}

	created, err := vs.vehiclesRepo.CreateVehicle(ctx, vehicle, accessToken)
	if err != nil {
		// If the insert fails, clean up uploaded images
		if len(uploadedPublicIDs) > 0 {
			helpers.DeleteImages(ctx, connect.Cld, uploadedPublicIDs)
		}
		return nil, err
	}

	return created, nil
}

func (vs *VehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid vehicle ID")
	}
	return vs.vehiclesRepo.GetVehicleByID(ctx, id)
}

func (vs *VehicleService) ListVehicles(ctx context.Context, filters map[string]string, offset, limit int) ([]*models.Vehicle, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("invalid offset or limit")
	}

	// Only known columns are allowed through as filters
	allowed := map[string]bool{"category": true, "status": true, "transmission": true, "fuel": true}
	for column := range filters {
		if !allowed[column] {
			return nil, 0, fmt.Errorf("unsupported filter: %s", column)
		}
	}

	return vs.vehiclesRepo.ListVehicles(ctx, filters, offset, limit)
}

func (vs *VehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.Vehicle, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid vehicle ID")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	if status, ok := fields["status"]; ok {
		s := models.VehicleStatus(fmt.Sprintf("%v", status))
		if s != models.VehicleAvailable && s != models.VehicleRented && s != models.VehicleMaintenance {
			return nil, fmt.Errorf("unsupported vehicle status: %s", s)
		}
	}

	return vs.vehiclesRepo.UpdateVehicle(ctx, id, fields, accessToken)
}

func (vs *VehicleService) DeleteVehicle(ctx context.Context, id uuid.UUID, accessToken string) error {
	if id == uuid.Nil {
		return fmt.Errorf("invalid vehicle ID")
	}
	return vs.vehiclesRepo.DeleteVehicle(ctx, id, accessToken)
}
