package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Otp is a one-shot verification code for signup and password reset.
// A fresh code supersedes any earlier one for the same email.
type Otp struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Otp       string    `gorm:"not null" json:"-"`
	Email     string    `gorm:"index;not null" json:"email"`
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`

	gorm.Model
}

func (o *Otp) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

// IsExpired reports whether the code is outside its validity window.
func (o *Otp) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
