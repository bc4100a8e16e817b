package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a buyer or seller party. The same pool serves both roles;
// a Sale references two clients via SellerID and BuyerID.
type Client struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`

	Name    string `gorm:"not null" json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Pan     string `json:"pan"`
	Gstin   string `json:"gstin"`
	Address string `json:"address"`
	Notes   string `json:"notes"`

	gorm.Model
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
