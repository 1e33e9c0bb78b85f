package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/models"
)

type AdminService struct {
	adminRepo models.AdminRepo
}

func NewAdminService(adminRepo models.AdminRepo) *AdminService {
	return &AdminService{
		adminRepo: adminRepo,
	}
}

func (as *AdminService) CreateAdmin(user *models.AdminUser) (interface{}, error) {
	if err := models.Validate.Struct(user); err != nil {
		return nil, err
	}

	ok := helpers.IsPasswordStrong(user.Password)
	if !ok {
		return nil, fmt.Errorf("password is not strong enough")
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	return as.adminRepo.CreateAdmin(context.Background(), user)
}

func (as *AdminService) AuthenticateAdmin(email, password string) (interface{}, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("invalid email format: %v", err)
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, fmt.Errorf("invalid password format: %v", err)
	}
	response, err := as.adminRepo.AuthenticateAdmin(context.Background(), email, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %v", err)
	}

	return response, nil
}

func (as *AdminService) RefreshToken(refreshToken string) (interface{}, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	return as.adminRepo.RefreshToken(context.Background(), refreshToken)
}

func (as *AdminService) GetAdmin(id uuid.UUID, accessToken string) (*models.AdminUser, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid user ID")
	}
	return as.adminRepo.GetAdmin(context.Background(), id, accessToken)
}
