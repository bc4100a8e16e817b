package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderChannelEmail    = "email"
	ReminderChannelWhatsapp = "whatsapp"

	ReminderStatusSent   = "sent"
	ReminderStatusFailed = "failed"
)

// ReminderLog records one payment-reminder send attempt per channel.
type ReminderLog struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	SaleID uuid.UUID `gorm:"type:uuid;index;not null" json:"saleId"`

	Channel      string    `gorm:"type:varchar(20)" json:"channel"`
	Message      string    `gorm:"type:text" json:"message"`
	Status       string    `gorm:"type:varchar(20)" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"errorMessage"`
	SentAt       time.Time `json:"sentAt"`

	gorm.Model
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
