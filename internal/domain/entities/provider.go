package entities

import (
	"time"
)

// Provider represents a care provider in the referral network directory
type Provider struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Specialty   string    `json:"specialty" db:"specialty"`
	Clinic      string    `json:"clinic" db:"clinic"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Email       string    `json:"email" db:"email"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
