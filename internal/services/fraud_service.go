package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/openroad/api/internal/models"
)

const (
	OutcomeAllowed     = "allowed"
	OutcomeBlocked     = "blocked"
	OutcomeRateLimited = "rate_limited"
)

// A contact pair gets maxRecentAttempts tries per attemptWindow before it is
// slowed down regardless of score.
const (
	attemptWindow     = 15 * time.Minute
	maxRecentAttempts = 5
	retryAfterSeconds = 600
)

// FraudService gates booking attempts. Scoring itself happens in the
// evaluate_booking_risk database procedure; this service only branches on the
// result and keeps the audit trail.
type FraudService struct {
	fraudRepo    models.FraudRepo
	attemptsRepo models.AttemptsRepo
	threshold    float64
	logger       *slog.Logger
}

type FraudDecision struct {
	Score      float64 `json:"score"`
	Outcome    string  `json:"outcome"`
	RetryAfter int     `json:"retry_after,omitempty"`
}

func NewFraudService(fraudRepo models.FraudRepo, attemptsRepo models.AttemptsRepo, threshold float64, logger *slog.Logger) *FraudService {
	return &FraudService{
		fraudRepo:    fraudRepo,
		attemptsRepo: attemptsRepo,
		threshold:    threshold,
		logger:       logger,
	}
}

func (fs *FraudService) Check(ctx context.Context, email, phone, ip string) (*FraudDecision, error) {
	risk, err := fs.fraudRepo.EvaluateRisk(ctx, email, phone, ip)
	if err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(email, phone)

	decision := &FraudDecision{Score: risk.Score, Outcome: OutcomeAllowed}
	switch {
	case risk.Blocked:
		decision.Outcome = OutcomeBlocked
	case risk.Score >= fs.threshold:
		decision.Outcome = OutcomeRateLimited
		decision.RetryAfter = retryAfterSeconds
	}

	if decision.Outcome == OutcomeAllowed {
		count, err := fs.attemptsRepo.CountRecentAttempts(ctx, fingerprint, attemptWindow)
		if err != nil {
			// Counting is best-effort like the rest of the audit trail
			fs.logger.Error("failed to count booking attempts", "error", err)
		} else if count >= maxRecentAttempts {
			decision.Outcome = OutcomeRateLimited
			decision.RetryAfter = retryAfterSeconds
		}
	}

	attempt := &models.BookingAttempt{
		Fingerprint: fingerprint,
		Email:       email,
		Phone:       phone,
		IP:          ip,
		Outcome:     decision.Outcome,
		Score:       risk.Score,
		CreatedAt:   time.Now(),
	}
	if err := fs.attemptsRepo.RecordAttempt(ctx, attempt); err != nil {
		// The audit trail is best-effort; the decision stands
		fs.logger.Error("failed to record booking attempt", "error", err)
	}

	if decision.Outcome != OutcomeAllowed {
		fs.logger.Warn("booking attempt gated",
			"outcome", decision.Outcome,
			"score", risk.Score,
			"ip", ip,
		)
	}

	return decision, nil
}

// Fingerprint derives a stable contact identifier for the audit log without
// storing raw contact pairs as keys.
func Fingerprint(email, phone string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email)) + "|" + strings.TrimSpace(phone)))
	return hex.EncodeToString(h[:])
}
