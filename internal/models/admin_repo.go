package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

type AdminRepo interface {
	CreateAdmin(ctx context.Context, user *AdminUser) (interface{}, error)
	AuthenticateAdmin(ctx context.Context, email, password string) (interface{}, error)
	RefreshToken(ctx context.Context, refreshToken string) (interface{}, error)
	GetAdmin(ctx context.Context, id uuid.UUID, accessToken string) (*AdminUser, error)
}

func (su *SupabaseRepo) CreateAdmin(ctx context.Context, user *AdminUser) (interface{}, error) {
	signed := types.SignupRequest{
		Email:    user.Email,
		Password: user.Password,
	}

	res, err := su.supabaseClient.Auth.Signup(signed)
	if err != nil {
		if strings.Contains(err.Error(), "User already Registered") {
			return nil, fmt.Errorf("email already in use")
		}
		if strings.Contains(err.Error(), "unique constraint") {
			return nil, fmt.Errorf("user already exists")
		}
		if strings.Contains(err.Error(), "invalid input syntax") {
			return nil, fmt.Errorf("invalid input format")
		}
		return nil, fmt.Errorf("failed to create account")
	}

	return res, nil
}

func (su *SupabaseRepo) AuthenticateAdmin(ctx context.Context, email, password string) (interface{}, error) {
	res, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return res, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	res, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %v", err)
	}
	return res, nil
}

func (su *SupabaseRepo) GetAdmin(ctx context.Context, id uuid.UUID, accessToken string) (*AdminUser, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	raw, status, err := client.From(ProfileTable).
		Select("id,email,username,fullname,role,phone_number,created_at,updated_at", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get profile by ID: %v", err)
	}

	// Supabase returns an array even for single results
	var users []AdminUser
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile rows: %v", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("profile not found")
	}

	return &users[0], nil
}
