package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type VerificationsRepo interface {
	CreateVerification(ctx context.Context, v *EmailVerification) error
	GetVerificationByToken(ctx context.Context, token string) (*EmailVerification, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

func (su *SupabaseRepo) CreateVerification(ctx context.Context, v *EmailVerification) error {
	record := map[string]interface{}{
		"id":         v.Id,
		"booking_id": v.BookingId,
		"token":      v.Token,
		"expires_at": v.ExpiresAt,
		"verified":   v.Verified,
		"created_at": v.CreatedAt,
	}

	_, _, err := su.supabaseClient.
		From(VerificationsTable).
		Insert(record, false, "", "", "exact").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to create verification: %v", err)
	}

	return nil
}

func (su *SupabaseRepo) GetVerificationByToken(ctx context.Context, token string) (*EmailVerification, error) {
	if token == "" {
		return nil, fmt.Errorf("empty verification token")
	}

	data, count, err := su.supabaseClient.
		From(VerificationsTable).
		Select("*", "exact", false).
		Eq("token", token).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %v", err)
	}
	if count == 0 {
		return nil, nil
	}

	var records []EmailVerification
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification rows: %v", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	return &records[0], nil
}

func (su *SupabaseRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	fields := map[string]interface{}{
		"verified":    true,
		"verified_at": time.Now(),
	}

	_, count, err := su.supabaseClient.
		From(VerificationsTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to mark verification: %v", err)
	}
	if count == 0 {
		return fmt.Errorf("verification not found")
	}

	return nil
}
