// services/sale_service.go
//
// Line-item operations for sales and goods returns. Every mutation
// recomputes the item's derived amounts with the pure calculator and
// applies the (new - old) delta to the parent's four aggregate columns
// as relative SQL increments, so concurrent deltas compose at the
// database instead of racing through read-modify-write. Callers run
// each operation inside one transaction spanning the item write and
// the parent aggregate write.
package services

import (
	"errors"

	"brokerbook-backend/models"
	"brokerbook-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// ProductInput is the caller-supplied portion of a sale line item; the
// amount fields are always derived, never accepted.
type ProductInput struct {
	Name         string
	Quantity     float64
	Unit         string
	Rate         float64
	GstRate      float64
	DiscountRate float64
	Notes        string
}

// ProductUpdate carries only the fields present in the request.
type ProductUpdate struct {
	Name         *string
	Quantity     *float64
	Unit         *string
	Rate         *float64
	GstRate      *float64
	DiscountRate *float64
	Notes        *string
}

// amounts returns the item's stored derived fields as a value object.
func productAmounts(p *models.Product) utils.LineAmounts {
	return utils.LineAmounts{
		Gross:    p.GrossAmount,
		Discount: p.DiscountAmount,
		Tax:      p.TaxAmount,
		Net:      p.NetAmount,
	}
}

func returnItemAmounts(p *models.GoodsReturnProduct) utils.LineAmounts {
	return utils.LineAmounts{
		Gross:    p.GrossAmount,
		Discount: p.DiscountAmount,
		Tax:      p.TaxAmount,
		Net:      p.NetAmount,
	}
}

// applySaleDelta adjusts the sale's aggregate columns by the delta.
func applySaleDelta(tx *gorm.DB, saleID uuid.UUID, delta utils.LineAmounts) error {
	result := tx.Model(&models.Sale{}).Where("id = ?", saleID).
		Updates(map[string]interface{}{
			"invoice_gross_amount":    gorm.Expr("invoice_gross_amount + ?", delta.Gross),
			"invoice_discount_amount": gorm.Expr("invoice_discount_amount + ?", delta.Discount),
			"invoice_tax_amount":      gorm.Expr("invoice_tax_amount + ?", delta.Tax),
			"invoice_net_amount":      gorm.Expr("invoice_net_amount + ?", delta.Net),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func applyGoodsReturnDelta(tx *gorm.DB, goodsReturnID uuid.UUID, delta utils.LineAmounts) error {
	result := tx.Model(&models.GoodsReturn{}).Where("id = ?", goodsReturnID).
		Updates(map[string]interface{}{
			"gross_amount":    gorm.Expr("gross_amount + ?", delta.Gross),
			"discount_amount": gorm.Expr("discount_amount + ?", delta.Discount),
			"tax_amount":      gorm.Expr("tax_amount + ?", delta.Tax),
			"net_amount":      gorm.Expr("net_amount + ?", delta.Net),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddProduct creates a line item and adds its amounts to the sale.
func AddProduct(tx *gorm.DB, saleID uuid.UUID, input ProductInput) (*models.Product, error) {
	amounts := utils.ComputeLineAmounts(input.Rate, input.Quantity, input.DiscountRate, input.GstRate)

	product := models.Product{
		SaleID:         saleID,
		Name:           input.Name,
		Quantity:       input.Quantity,
		Unit:           input.Unit,
		Rate:           input.Rate,
		GstRate:        input.GstRate,
		DiscountRate:   input.DiscountRate,
		GrossAmount:    amounts.Gross,
		DiscountAmount: amounts.Discount,
		TaxAmount:      amounts.Tax,
		NetAmount:      amounts.Net,
		Notes:          input.Notes,
	}

	if err := tx.Create(&product).Error; err != nil {
		return nil, err
	}
	if err := applySaleDelta(tx, saleID, amounts); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies the provided fields to the item. When any of
// quantity, rate, discount rate or GST rate changes, the item's
// amounts are recomputed and the delta propagated to the sale.
func UpdateProduct(tx *gorm.DB, product *models.Product, input ProductUpdate) error {
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}
	if input.Notes != nil {
		product.Notes = *input.Notes
	}

	recompute := false
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
		recompute = true
	}
	if input.Rate != nil {
		product.Rate = *input.Rate
		recompute = true
	}
	if input.DiscountRate != nil {
		product.DiscountRate = *input.DiscountRate
		recompute = true
	}
	if input.GstRate != nil {
		product.GstRate = *input.GstRate
		recompute = true
	}

	if recompute {
		old := productAmounts(product)
		amounts := utils.ComputeLineAmounts(product.Rate, product.Quantity, product.DiscountRate, product.GstRate)
		product.GrossAmount = amounts.Gross
		product.DiscountAmount = amounts.Discount
		product.TaxAmount = amounts.Tax
		product.NetAmount = amounts.Net

		if err := tx.Save(product).Error; err != nil {
			return err
		}
		return applySaleDelta(tx, product.SaleID, amounts.Sub(old))
	}

	return tx.Save(product).Error
}

// RemoveProduct deletes the item and subtracts its amounts from the
// sale, keeping the aggregates equal to the sum of the surviving items.
func RemoveProduct(tx *gorm.DB, product *models.Product) error {
	if err := tx.Delete(product).Error; err != nil {
		return err
	}
	return applySaleDelta(tx, product.SaleID, productAmounts(product).Neg())
}

// AddReturnItem creates a returned line item priced from the referenced
// sale product and adds its amounts to the goods return.
func AddReturnItem(tx *gorm.DB, goodsReturnID uuid.UUID, product *models.Product, quantity float64) (*models.GoodsReturnProduct, error) {
	amounts := utils.ComputeLineAmounts(product.Rate, quantity, product.DiscountRate, product.GstRate)

	item := models.GoodsReturnProduct{
		GoodsReturnID:  goodsReturnID,
		ProductID:      product.ID,
		Quantity:       quantity,
		GrossAmount:    amounts.Gross,
		DiscountAmount: amounts.Discount,
		TaxAmount:      amounts.Tax,
		NetAmount:      amounts.Net,
	}

	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	if err := applyGoodsReturnDelta(tx, goodsReturnID, amounts); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateReturnItem changes the returned quantity and propagates the
// recomputed delta to the goods return.
func UpdateReturnItem(tx *gorm.DB, item *models.GoodsReturnProduct, product *models.Product, quantity float64) error {
	old := returnItemAmounts(item)
	amounts := utils.ComputeLineAmounts(product.Rate, quantity, product.DiscountRate, product.GstRate)

	item.Quantity = quantity
	item.GrossAmount = amounts.Gross
	item.DiscountAmount = amounts.Discount
	item.TaxAmount = amounts.Tax
	item.NetAmount = amounts.Net

	if err := tx.Save(item).Error; err != nil {
		return err
	}
	return applyGoodsReturnDelta(tx, item.GoodsReturnID, amounts.Sub(old))
}

// RemoveReturnItem deletes the returned item and reverses its amounts
// out of the goods return.
func RemoveReturnItem(tx *gorm.DB, item *models.GoodsReturnProduct) error {
	if err := tx.Delete(item).Error; err != nil {
		return err
	}
	return applyGoodsReturnDelta(tx, item.GoodsReturnID, returnItemAmounts(item).Neg())
}

// RefreshSaleStatus recomputes a sale's payment status from the sum of
// its payments against the invoice net amount. OVERDUE is preserved
// until a payment arrives.
func RefreshSaleStatus(tx *gorm.DB, saleID uuid.UUID) error {
	var sale models.Sale
	if err := tx.First(&sale, "id = ?", saleID).Error; err != nil {
		return err
	}

	var paid float64
	if err := tx.Model(&models.SalePayment{}).
		Where("sale_id = ? AND deleted_at IS NULL", saleID).
		Select("COALESCE(SUM(amount), 0)").Scan(&paid).Error; err != nil {
		return err
	}

	status := models.SalePending
	switch {
	case paid >= sale.InvoiceNetAmount && sale.InvoiceNetAmount > 0:
		status = models.SalePaid
	case paid > 0:
		status = models.SalePartiallyPaid
	case sale.Status == models.SaleOverdue:
		status = models.SaleOverdue
	}

	if status == sale.Status {
		return nil
	}
	return tx.Model(&models.Sale{}).Where("id = ?", saleID).Update("status", status).Error
}
