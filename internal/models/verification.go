package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationTTL is how long an email verification link stays valid.
const VerificationTTL = 20 * time.Minute

type EmailVerification struct {
	Id        uuid.UUID `db:"id" json:"id,omitempty"`
	BookingId uuid.UUID `db:"booking_id" json:"booking_id"`
	Token     string    `db:"token" json:"token"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Verified  bool      `db:"verified" json:"verified"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (v *EmailVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// BookingAttempt is the audit record behind the fraud gate, stored in mongo.
type BookingAttempt struct {
	Id          string    `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint string    `bson:"fingerprint" json:"fingerprint"`
	Email       string    `bson:"email" json:"email"`
	Phone       string    `bson:"phone" json:"phone"`
	IP          string    `bson:"ip" json:"ip"`
	Outcome     string    `bson:"outcome" json:"outcome"` // allowed, blocked, rate_limited
	Score       float64   `bson:"score" json:"score"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
