package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is a dashboard account. Customers do not have accounts; only
// staff rows exist in the profiles table.
type AdminUser struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	FullName    string    `db:"fullname" json:"fullname"`
	Email       string    `db:"email" json:"email"`
	Password    string    `db:"password" json:"password,omitempty"`
	Role        string    `db:"role" json:"role"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
