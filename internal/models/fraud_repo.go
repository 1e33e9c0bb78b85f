package models

import (
	"context"
	"encoding/json"
	"fmt"
)

// RiskResult is what the evaluate_booking_risk procedure returns. The scoring
// logic itself lives database-side; this process only branches on the values.
type RiskResult struct {
	Score   float64 `json:"score"`
	Blocked bool    `json:"blocked"`
}

type FraudRepo interface {
	EvaluateRisk(ctx context.Context, email, phone, ip string) (*RiskResult, error)
}

func (su *SupabaseRepo) EvaluateRisk(ctx context.Context, email, phone, ip string) (*RiskResult, error) {
	params := map[string]interface{}{
		"p_email": email,
		"p_phone": phone,
		"p_ip":    ip,
	}

	raw := su.supabaseClient.Rpc("evaluate_booking_risk", "", params)
	if raw == "" {
		return nil, fmt.Errorf("evaluate_booking_risk returned no result")
	}

	var result RiskResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk result: %v", err)
	}

	return &result, nil
}
