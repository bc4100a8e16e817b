package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription statuses. At most one row per user should be ACTIVE at a
// time; the prior ACTIVE row is marked UPGRADED/DOWNGRADED/CANCELLED
// before a new ACTIVE one is created.
const (
	SubscriptionPending    = "PENDING"
	SubscriptionActive     = "ACTIVE"
	SubscriptionExpired    = "EXPIRED"
	SubscriptionCancelled  = "CANCELLED"
	SubscriptionUpgraded   = "UPGRADED"
	SubscriptionDowngraded = "DOWNGRADED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

type Subscription struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	PlanName  PlanName  `gorm:"type:varchar(20);not null" json:"planName"`
	PlanPrice float64   `gorm:"type:decimal(10,2);default:0.0" json:"planPrice"`

	// Duration in months; 0 means the subscription never expires.
	Duration int `gorm:"default:0" json:"duration"`

	OrderID       string `gorm:"uniqueIndex;not null" json:"orderId"`
	Status        string `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	PaymentStatus string `gorm:"type:varchar(20);default:'PENDING'" json:"paymentStatus"`

	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`

	gorm.Model
}
