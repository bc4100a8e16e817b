// controllers/sale.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/services"
	"brokerbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleProductInput defines the structure for an initial sale line item
type SaleProductInput struct {
	Name         string  `json:"name" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	Unit         string  `json:"unit"`
	Rate         float64 `json:"rate" binding:"min=0"`
	GstRate      float64 `json:"gstRate" binding:"min=0"`
	DiscountRate float64 `json:"discountRate" binding:"min=0"`
	Notes        string  `json:"notes"`
}

// CreateSaleInput defines the expected JSON structure for creating a sale
type CreateSaleInput struct {
	BookID         uuid.UUID          `json:"bookId" binding:"required"`
	SellerID       uuid.UUID          `json:"sellerId" binding:"required"`
	BuyerID        uuid.UUID          `json:"buyerId" binding:"required"`
	InvoiceNumber  string             `json:"invoiceNumber"`
	InvoiceDate    *time.Time         `json:"invoiceDate"`
	Transport      string             `json:"transport"`
	LorryNumber    string             `json:"lorryNumber"`
	ChallanNumber  string             `json:"challanNumber"`
	EWayBillNumber string             `json:"eWayBillNumber"`
	CommissionRate float64            `json:"commissionRate" binding:"min=0"`
	InvoiceDueDays *int               `json:"invoiceDueDays" binding:"omitempty,min=0"`
	Notes          string             `json:"notes"`
	Products       []SaleProductInput `json:"products"`
}

// UpdateSaleInput defines the expected JSON structure for updating a sale.
// Line items are mutated through the product endpoints, never here.
type UpdateSaleInput struct {
	BuyerID        *uuid.UUID `json:"buyerId"`
	SellerID       *uuid.UUID `json:"sellerId"`
	InvoiceNumber  *string    `json:"invoiceNumber"`
	InvoiceDate    *time.Time `json:"invoiceDate"`
	Transport      *string    `json:"transport"`
	LorryNumber    *string    `json:"lorryNumber"`
	ChallanNumber  *string    `json:"challanNumber"`
	EWayBillNumber *string    `json:"eWayBillNumber"`
	CommissionRate *float64   `json:"commissionRate" binding:"omitempty,min=0"`
	InvoiceDueDays *int       `json:"invoiceDueDays" binding:"omitempty,min=0"`
	Status         *string    `json:"status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID PAID OVERDUE"`
	Notes          *string    `json:"notes"`
}

// loadOwnedBook fetches a book scoped to the user.
func loadOwnedBook(db *gorm.DB, userID, bookID uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := db.Where("user_id = ? AND id = ?", userID, bookID).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// loadOwnedSale fetches a sale through the user's books.
func loadOwnedSale(db *gorm.DB, userID, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := db.Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.id = ?", userID, saleID).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// invoiceNumberTaken checks uniqueness of the number across the user's books.
func invoiceNumberTaken(db *gorm.DB, userID uuid.UUID, number string, excludeSale uuid.UUID) (bool, error) {
	var count int64
	query := db.Model(&models.Sale{}).
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.invoice_number = ? AND sales.deleted_at IS NULL", userID, number)
	if excludeSale != uuid.Nil {
		query = query.Where("sales.id <> ?", excludeSale)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateSale creates a new invoice, optionally with its initial line
// items computed and aggregated in the same transaction.
func CreateSale(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	book, err := loadOwnedBook(config.DB, userID, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Book not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if book.Status == models.BookClosed {
		utils.RespondWithError(c, http.StatusBadRequest, "Book is closed")
		return
	}

	// Buyer and seller must both belong to the user's client list
	for _, clientID := range []uuid.UUID{input.SellerID, input.BuyerID} {
		var client models.Client
		if err := config.DB.Where("user_id = ? AND id = ?", userID, clientID).
			First(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Client not found: "+clientID.String())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
	}

	invoiceNumber := input.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = "INV-" + time.Now().Format("20060102") + "-" + utils.GenerateRandomString(6)
	}

	taken, err := invoiceNumberTaken(config.DB, userID, invoiceNumber, uuid.Nil)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if taken {
		utils.RespondWithError(c, http.StatusConflict, "Invoice number already in use")
		return
	}

	invoiceDate := time.Now()
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}

	dueDays := models.DefaultInvoiceDueDays
	if input.InvoiceDueDays != nil {
		dueDays = *input.InvoiceDueDays
	}

	sale := models.Sale{
		BookID:         book.ID,
		SellerID:       input.SellerID,
		BuyerID:        input.BuyerID,
		InvoiceNumber:  invoiceNumber,
		InvoiceDate:    invoiceDate,
		Transport:      input.Transport,
		LorryNumber:    input.LorryNumber,
		ChallanNumber:  input.ChallanNumber,
		EWayBillNumber: input.EWayBillNumber,
		CommissionRate: input.CommissionRate,
		InvoiceDueDays: dueDays,
		Status:         models.SalePending,
		Notes:          input.Notes,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create sale")
		return
	}

	for _, item := range input.Products {
		if _, err := services.AddProduct(tx, sale.ID, services.ProductInput{
			Name:         item.Name,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			Rate:         item.Rate,
			GstRate:      item.GstRate,
			DiscountRate: item.DiscountRate,
			Notes:        item.Notes,
		}); err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create sale products")
			return
		}
	}

	tx.Commit()

	var created models.Sale
	if err := config.DB.Preload("Products").First(&created, "id = ?", sale.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetSales retrieves the sales of one book
func GetSales(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	bookUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid book ID format")
		return
	}

	if _, err := loadOwnedBook(config.DB, userID, bookUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Book not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var sales []models.Sale
	if err := config.DB.Preload("Products").Preload("Buyer").Preload("Seller").
		Where("book_id = ?", bookUUID).
		Order("invoice_date DESC").
		Find(&sales).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sales")
		return
	}

	c.JSON(http.StatusOK, sales)
}

// GetSale retrieves a specific sale by ID
func GetSale(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	saleUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var sale models.Sale
	if err := config.DB.Preload("Products").Preload("Buyer").Preload("Seller").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.id = ?", userID, saleUUID).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, sale)
}

// UpdateSale updates the descriptive and status fields of a sale
func UpdateSale(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	saleUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var input UpdateSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	sale, err := loadOwnedSale(config.DB, userID, saleUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	for _, clientID := range []*uuid.UUID{input.SellerID, input.BuyerID} {
		if clientID == nil {
			continue
		}
		var client models.Client
		if err := config.DB.Where("user_id = ? AND id = ?", userID, *clientID).
			First(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Client not found: "+clientID.String())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
	}

	if input.InvoiceNumber != nil && *input.InvoiceNumber != sale.InvoiceNumber {
		taken, err := invoiceNumberTaken(config.DB, userID, *input.InvoiceNumber, sale.ID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if taken {
			utils.RespondWithError(c, http.StatusConflict, "Invoice number already in use")
			return
		}
		sale.InvoiceNumber = *input.InvoiceNumber
	}

	if input.SellerID != nil {
		sale.SellerID = *input.SellerID
	}
	if input.BuyerID != nil {
		sale.BuyerID = *input.BuyerID
	}
	if input.InvoiceDate != nil {
		sale.InvoiceDate = *input.InvoiceDate
	}
	if input.Transport != nil {
		sale.Transport = *input.Transport
	}
	if input.LorryNumber != nil {
		sale.LorryNumber = *input.LorryNumber
	}
	if input.ChallanNumber != nil {
		sale.ChallanNumber = *input.ChallanNumber
	}
	if input.EWayBillNumber != nil {
		sale.EWayBillNumber = *input.EWayBillNumber
	}
	if input.CommissionRate != nil {
		sale.CommissionRate = *input.CommissionRate
	}
	if input.InvoiceDueDays != nil {
		sale.InvoiceDueDays = *input.InvoiceDueDays
	}
	if input.Status != nil {
		sale.Status = *input.Status
	}
	if input.Notes != nil {
		sale.Notes = *input.Notes
	}

	if err := config.DB.Save(sale).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update sale")
		return
	}

	c.JSON(http.StatusOK, sale)
}

// DeleteSale removes a sale and its children in one transaction
func DeleteSale(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	saleUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	sale, err := loadOwnedSale(tx, userID, saleUUID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.Product{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete sale products")
		return
	}

	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SalePayment{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete sale payments")
		return
	}

	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.GoodsReturn{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete goods returns")
		return
	}

	if err := tx.Delete(sale).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete sale")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully"})
}
