package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BookOpen   = "OPEN"
	BookClosed = "CLOSED"
)

// Book is an accounting period grouping the sales of one user.
type Book struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`

	Name      string     `gorm:"not null" json:"name"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`

	OpeningBalance float64 `gorm:"type:decimal(12,2);default:0.0" json:"openingBalance"`
	ClosingBalance float64 `gorm:"type:decimal(12,2);default:0.0" json:"closingBalance"`

	Status string `gorm:"type:varchar(10);default:'OPEN'" json:"status"`
	Notes  string `json:"notes"`

	Sales []Sale `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`

	gorm.Model
}

func (b *Book) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
