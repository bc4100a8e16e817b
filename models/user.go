package models

import (
	"time"

	"brokerbook-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Phone    string    `json:"phone"`

	IsVerified bool `gorm:"default:false" json:"isVerified"`

	LastLogin *time.Time `json:"lastLogin"`

	Books         []Book         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Clients       []Client       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	gorm.Model
}

// Assign the UUID and hash the password before the row is written.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}
