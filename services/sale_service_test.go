package services

import (
	"testing"
	"time"

	"brokerbook-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestSale(t *testing.T, db *gorm.DB) *models.Sale {
	t.Helper()
	book := models.Book{UserID: uuid.New(), Name: "FY 2025-26"}
	require.NoError(t, db.Create(&book).Error)

	sale := models.Sale{
		BookID:         book.ID,
		SellerID:       uuid.New(),
		BuyerID:        uuid.New(),
		InvoiceNumber:  "INV-20250815-ABC123",
		InvoiceDate:    time.Now(),
		CommissionRate: 2,
		InvoiceDueDays: models.DefaultInvoiceDueDays,
		Status:         models.SalePending,
	}
	require.NoError(t, db.Create(&sale).Error)
	return &sale
}

func reloadSale(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Sale {
	t.Helper()
	var sale models.Sale
	require.NoError(t, db.First(&sale, "id = ?", id).Error)
	return &sale
}

// assertSaleMatchesItems checks that the sale aggregates equal the sums
// over its surviving line items.
func assertSaleMatchesItems(t *testing.T, db *gorm.DB, saleID uuid.UUID) {
	t.Helper()
	sale := reloadSale(t, db, saleID)

	var items []models.Product
	require.NoError(t, db.Where("sale_id = ?", saleID).Find(&items).Error)

	var gross, discount, tax, net float64
	for _, item := range items {
		gross += item.GrossAmount
		discount += item.DiscountAmount
		tax += item.TaxAmount
		net += item.NetAmount
	}

	assert.InDelta(t, gross, sale.InvoiceGrossAmount, 1e-6)
	assert.InDelta(t, discount, sale.InvoiceDiscountAmount, 1e-6)
	assert.InDelta(t, tax, sale.InvoiceTaxAmount, 1e-6)
	assert.InDelta(t, net, sale.InvoiceNetAmount, 1e-6)
}

func TestAddProductDerivesAmountsAndUpdatesSale(t *testing.T) {
	db := newTestDB(t)
	sale := createTestSale(t, db)

	product, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Cotton Bales", Quantity: 10, Unit: "bale", Rate: 30, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)

	assert.InDelta(t, 300, product.GrossAmount, 1e-6)
	assert.InDelta(t, 30, product.DiscountAmount, 1e-6)
	assert.InDelta(t, 48.6, product.TaxAmount, 1e-6)
	assert.InDelta(t, 318.6, product.NetAmount, 1e-6)

	_, err = AddProduct(db, sale.ID, ProductInput{
		Name: "Jute Sacks", Quantity: 5, Unit: "pc", Rate: 100, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)

	reloaded := reloadSale(t, db, sale.ID)
	assert.InDelta(t, 800, reloaded.InvoiceGrossAmount, 1e-6)
	assert.InDelta(t, 80, reloaded.InvoiceDiscountAmount, 1e-6)
	assert.InDelta(t, 129.6, reloaded.InvoiceTaxAmount, 1e-6)
	assert.InDelta(t, 849.6, reloaded.InvoiceNetAmount, 1e-6)
	assertSaleMatchesItems(t, db, sale.ID)
}

func TestAddProductMissingSale(t *testing.T) {
	db := newTestDB(t)

	_, err := AddProduct(db, uuid.New(), ProductInput{Name: "Ghost", Quantity: 1, Rate: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductPropagatesDelta(t *testing.T) {
	db := newTestDB(t)
	sale := createTestSale(t, db)

	product, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Cotton Bales", Quantity: 10, Unit: "bale", Rate: 30, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)

	quantity := 20.0
	require.NoError(t, UpdateProduct(db, product, ProductUpdate{Quantity: &quantity}))

	assert.InDelta(t, 600, product.GrossAmount, 1e-6)
	assert.InDelta(t, 637.2, product.NetAmount, 1e-6)

	reloaded := reloadSale(t, db, sale.ID)
	assert.InDelta(t, 600, reloaded.InvoiceGrossAmount, 1e-6)
	assert.InDelta(t, 60, reloaded.InvoiceDiscountAmount, 1e-6)
	assert.InDelta(t, 97.2, reloaded.InvoiceTaxAmount, 1e-6)
	assert.InDelta(t, 637.2, reloaded.InvoiceNetAmount, 1e-6)
	assertSaleMatchesItems(t, db, sale.ID)
}

func TestUpdateProductDescriptiveFieldsOnly(t *testing.T) {
	db := newTestDB(t)
	sale := createTestSale(t, db)

	product, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Cotton Bales", Quantity: 10, Unit: "bale", Rate: 30, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)
	before := reloadSale(t, db, sale.ID)

	name := "Cotton Bales Grade A"
	notes := "repacked"
	require.NoError(t, UpdateProduct(db, product, ProductUpdate{Name: &name, Notes: &notes}))

	after := reloadSale(t, db, sale.ID)
	assert.Equal(t, before.InvoiceGrossAmount, after.InvoiceGrossAmount)
	assert.Equal(t, before.InvoiceNetAmount, after.InvoiceNetAmount)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, "Cotton Bales Grade A", stored.Name)
	assert.Equal(t, "repacked", stored.Notes)
}

func TestRemoveProductReversesAmounts(t *testing.T) {
	db := newTestDB(t)
	sale := createTestSale(t, db)

	first, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Cotton Bales", Quantity: 10, Unit: "bale", Rate: 30, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)
	second, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Jute Sacks", Quantity: 5, Unit: "pc", Rate: 100, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)

	require.NoError(t, RemoveProduct(db, first))

	reloaded := reloadSale(t, db, sale.ID)
	assert.InDelta(t, second.GrossAmount, reloaded.InvoiceGrossAmount, 1e-6)
	assert.InDelta(t, second.NetAmount, reloaded.InvoiceNetAmount, 1e-6)
	assertSaleMatchesItems(t, db, sale.ID)

	require.NoError(t, RemoveProduct(db, second))
	reloaded = reloadSale(t, db, sale.ID)
	assert.InDelta(t, 0, reloaded.InvoiceGrossAmount, 1e-6)
	assert.InDelta(t, 0, reloaded.InvoiceNetAmount, 1e-6)
}

func TestGoodsReturnItemLifecycle(t *testing.T) {
	db := newTestDB(t)
	sale := createTestSale(t, db)

	product, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Cotton Bales", Quantity: 10, Unit: "bale", Rate: 30, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)

	goodsReturn := models.GoodsReturn{SaleID: sale.ID}
	require.NoError(t, db.Create(&goodsReturn).Error)

	item, err := AddReturnItem(db, goodsReturn.ID, product, 4)
	require.NoError(t, err)
	// Priced from the sale product: 4 x 30 with 10% discount and 18% GST.
	assert.InDelta(t, 120, item.GrossAmount, 1e-6)
	assert.InDelta(t, 12, item.DiscountAmount, 1e-6)
	assert.InDelta(t, 19.44, item.TaxAmount, 1e-6)
	assert.InDelta(t, 127.44, item.NetAmount, 1e-6)

	var stored models.GoodsReturn
	require.NoError(t, db.First(&stored, "id = ?", goodsReturn.ID).Error)
	assert.InDelta(t, 120, stored.GrossAmount, 1e-6)
	assert.InDelta(t, 127.44, stored.NetAmount, 1e-6)

	require.NoError(t, UpdateReturnItem(db, item, product, 2))
	require.NoError(t, db.First(&stored, "id = ?", goodsReturn.ID).Error)
	assert.InDelta(t, 60, stored.GrossAmount, 1e-6)
	assert.InDelta(t, 63.72, stored.NetAmount, 1e-6)

	require.NoError(t, RemoveReturnItem(db, item))
	require.NoError(t, db.First(&stored, "id = ?", goodsReturn.ID).Error)
	assert.InDelta(t, 0, stored.GrossAmount, 1e-6)
	assert.InDelta(t, 0, stored.NetAmount, 1e-6)
}

func TestRefreshSaleStatus(t *testing.T) {
	db := newTestDB(t)
	sale := createTestSale(t, db)

	_, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Cotton Bales", Quantity: 10, Unit: "bale", Rate: 30, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)

	payment := models.SalePayment{SaleID: sale.ID, Amount: 100, PaymentMethod: models.PaymentMethodCash}
	require.NoError(t, db.Create(&payment).Error)
	require.NoError(t, RefreshSaleStatus(db, sale.ID))
	assert.Equal(t, models.SalePartiallyPaid, reloadSale(t, db, sale.ID).Status)

	rest := models.SalePayment{SaleID: sale.ID, Amount: 220, PaymentMethod: models.PaymentMethodBankTransfer}
	require.NoError(t, db.Create(&rest).Error)
	require.NoError(t, RefreshSaleStatus(db, sale.ID))
	assert.Equal(t, models.SalePaid, reloadSale(t, db, sale.ID).Status)

	// Deleting a payment drops the sale back to partially paid.
	require.NoError(t, db.Delete(&rest).Error)
	require.NoError(t, RefreshSaleStatus(db, sale.ID))
	assert.Equal(t, models.SalePartiallyPaid, reloadSale(t, db, sale.ID).Status)
}

func TestRefreshSaleStatusKeepsOverdueWhileUnpaid(t *testing.T) {
	db := newTestDB(t)
	sale := createTestSale(t, db)

	_, err := AddProduct(db, sale.ID, ProductInput{
		Name: "Cotton Bales", Quantity: 10, Unit: "bale", Rate: 30, GstRate: 18, DiscountRate: 10,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Sale{}).Where("id = ?", sale.ID).
		Update("status", models.SaleOverdue).Error)

	require.NoError(t, RefreshSaleStatus(db, sale.ID))
	assert.Equal(t, models.SaleOverdue, reloadSale(t, db, sale.ID).Status)

	payment := models.SalePayment{SaleID: sale.ID, Amount: 50, PaymentMethod: models.PaymentMethodCash}
	require.NoError(t, db.Create(&payment).Error)
	require.NoError(t, RefreshSaleStatus(db, sale.ID))
	assert.Equal(t, models.SalePartiallyPaid, reloadSale(t, db, sale.ID).Status)
}

func TestSaleDueDate(t *testing.T) {
	invoiceDate := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	sale := models.Sale{InvoiceDate: invoiceDate, InvoiceDueDays: 45}
	assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), sale.DueDate())
}
