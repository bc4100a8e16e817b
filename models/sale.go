package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sale statuses follow the payment lifecycle; OVERDUE is set by the
// daily reminder job once the due window has elapsed.
const (
	SalePending       = "PENDING"
	SalePartiallyPaid = "PARTIALLY_PAID"
	SalePaid          = "PAID"
	SaleOverdue       = "OVERDUE"
)

const DefaultInvoiceDueDays = 45

// Sale is the invoice. The four Invoice*Amount columns are running
// aggregates over the child Products and are maintained incrementally:
// InvoiceNetAmount = InvoiceGrossAmount - InvoiceDiscountAmount + InvoiceTaxAmount.
type Sale struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookID uuid.UUID `gorm:"type:uuid;index;not null" json:"bookId"`

	SellerID uuid.UUID `gorm:"type:uuid;index;not null" json:"sellerId"`
	BuyerID  uuid.UUID `gorm:"type:uuid;index;not null" json:"buyerId"`
	Seller   *Client   `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Buyer    *Client   `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`

	InvoiceNumber string    `gorm:"index;not null" json:"invoiceNumber"`
	InvoiceDate   time.Time `json:"invoiceDate"`

	Transport      string `json:"transport"`
	LorryNumber    string `json:"lorryNumber"`
	ChallanNumber  string `json:"challanNumber"`
	EWayBillNumber string `json:"eWayBillNumber"`

	InvoiceGrossAmount    float64 `gorm:"type:decimal(12,2);default:0.0" json:"invoiceGrossAmount"`
	InvoiceDiscountAmount float64 `gorm:"type:decimal(12,2);default:0.0" json:"invoiceDiscountAmount"`
	InvoiceTaxAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"invoiceTaxAmount"`
	InvoiceNetAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"invoiceNetAmount"`

	CommissionRate float64 `gorm:"type:decimal(5,2);default:0.0" json:"commissionRate"`
	InvoiceDueDays int     `gorm:"default:45" json:"invoiceDueDays"`

	Status string `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	Notes  string `json:"notes"`

	Products     []Product     `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
	GoodsReturns []GoodsReturn `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"-"`
	Payments     []SalePayment `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"-"`

	gorm.Model
}

func (s *Sale) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// DueDate returns the day the invoice becomes overdue.
func (s *Sale) DueDate() time.Time {
	return s.InvoiceDate.AddDate(0, 0, s.InvoiceDueDays)
}

// Product is one priced line item of a Sale. The four amount columns
// are derived from Rate/Quantity/DiscountRate/GstRate and never set
// directly by callers.
type Product struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SaleID uuid.UUID `gorm:"type:uuid;index;not null" json:"saleId"`

	Name     string  `gorm:"not null" json:"name"`
	Quantity float64 `gorm:"default:0" json:"quantity"`
	Unit     string  `json:"unit"`

	Rate         float64 `gorm:"type:decimal(12,2);default:0.0" json:"rate"`
	GstRate      float64 `gorm:"type:decimal(5,2);default:0.0" json:"gstRate"`
	DiscountRate float64 `gorm:"type:decimal(5,2);default:0.0" json:"discountRate"`

	GrossAmount    float64 `gorm:"type:decimal(12,2);default:0.0" json:"grossAmount"`
	DiscountAmount float64 `gorm:"type:decimal(12,2);default:0.0" json:"discountAmount"`
	TaxAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"taxAmount"`
	NetAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"netAmount"`

	Notes string `json:"notes"`

	gorm.Model
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
