package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GoodsReturn records items returned against a Sale. Its four amount
// columns aggregate the child GoodsReturnProduct rows, mirroring the
// Sale/Product pattern.
type GoodsReturn struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SaleID uuid.UUID `gorm:"type:uuid;index;not null" json:"saleId"`

	GrossAmount    float64 `gorm:"type:decimal(12,2);default:0.0" json:"grossAmount"`
	DiscountAmount float64 `gorm:"type:decimal(12,2);default:0.0" json:"discountAmount"`
	TaxAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"taxAmount"`
	NetAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"netAmount"`

	Notes string `json:"notes"`

	Products []GoodsReturnProduct `gorm:"foreignKey:GoodsReturnID;constraint:OnDelete:CASCADE" json:"products,omitempty"`

	gorm.Model
}

func (g *GoodsReturn) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return
}

// GoodsReturnProduct is one returned line item. Rate, GST rate and
// discount rate come from the referenced sale Product; only the
// returned quantity is stored here alongside the derived amounts.
type GoodsReturnProduct struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	GoodsReturnID uuid.UUID `gorm:"type:uuid;index;not null" json:"goodsReturnId"`
	ProductID     uuid.UUID `gorm:"type:uuid;index;not null" json:"productId"`

	Quantity float64 `gorm:"default:0" json:"quantity"`

	GrossAmount    float64 `gorm:"type:decimal(12,2);default:0.0" json:"grossAmount"`
	DiscountAmount float64 `gorm:"type:decimal(12,2);default:0.0" json:"discountAmount"`
	TaxAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"taxAmount"`
	NetAmount      float64 `gorm:"type:decimal(12,2);default:0.0" json:"netAmount"`

	gorm.Model
}

func (g *GoodsReturnProduct) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return
}
