package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentMethodCash          = "CASH"
	PaymentMethodBankTransfer  = "BANK_TRANSFER"
	PaymentMethodCheque        = "CHEQUE"
	PaymentMethodOnlinePayment = "ONLINE_PAYMENT"
)

// SalePayment is one payment received against a Sale.
type SalePayment struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SaleID uuid.UUID `gorm:"type:uuid;index;not null" json:"saleId"`

	Amount          float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod   string  `gorm:"type:varchar(20);default:'CASH'" json:"paymentMethod"`
	ReferenceNumber string  `json:"referenceNumber"`
	Notes           string  `json:"notes"`

	Commissions []SaleCommission `gorm:"foreignKey:SalePaymentID;constraint:OnDelete:CASCADE" json:"commissions,omitempty"`

	gorm.Model
}

func (p *SalePayment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// SaleCommission is the brokerage fee collected on one SalePayment.
type SaleCommission struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalePaymentID uuid.UUID `gorm:"type:uuid;index;not null" json:"salePaymentId"`

	Amount          float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod   string  `gorm:"type:varchar(20);default:'CASH'" json:"paymentMethod"`
	ReferenceNumber string  `json:"referenceNumber"`
	Notes           string  `json:"notes"`

	gorm.Model
}

func (c *SaleCommission) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
