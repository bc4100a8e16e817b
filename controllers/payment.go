// controllers/payment.go
package controllers

import (
	"errors"
	"net/http"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/services"
	"brokerbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateSalePaymentInput defines the expected JSON structure for
// recording a payment against a sale
type CreateSalePaymentInput struct {
	SaleID          uuid.UUID `json:"saleId" binding:"required"`
	Amount          float64   `json:"amount" binding:"required,gt=0"`
	PaymentMethod   string    `json:"paymentMethod" binding:"omitempty,oneof=CASH BANK_TRANSFER CHEQUE ONLINE_PAYMENT"`
	ReferenceNumber string    `json:"referenceNumber"`
	Notes           string    `json:"notes"`
}

// CreateSaleCommissionInput records the brokerage collected on a payment
type CreateSaleCommissionInput struct {
	Amount          *float64 `json:"amount" binding:"omitempty,gt=0"`
	PaymentMethod   string   `json:"paymentMethod" binding:"omitempty,oneof=CASH BANK_TRANSFER CHEQUE ONLINE_PAYMENT"`
	ReferenceNumber string   `json:"referenceNumber"`
	Notes           string   `json:"notes"`
}

// loadOwnedPayment fetches a payment through the user's books.
func loadOwnedPayment(db *gorm.DB, userID, paymentID uuid.UUID) (*models.SalePayment, error) {
	var payment models.SalePayment
	err := db.Joins("JOIN sales ON sales.id = sale_payments.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sale_payments.id = ?", userID, paymentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreateSalePayment records a payment and refreshes the sale's payment
// status in one transaction.
func CreateSalePayment(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateSalePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	sale, err := loadOwnedSale(config.DB, userID, input.SaleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}

	payment := models.SalePayment{
		SaleID:          sale.ID,
		Amount:          utils.Round2(input.Amount),
		PaymentMethod:   paymentMethod,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create payment")
		return
	}

	if err := services.RefreshSaleStatus(tx, sale.ID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update sale status")
		return
	}

	tx.Commit()

	c.JSON(http.StatusCreated, payment)
}

// GetSalePayments lists the payments of one sale
func GetSalePayments(c *gin.Context) {
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

	if _, err := loadOwnedSale(config.DB, userID, saleUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var payments []models.SalePayment
	if err := config.DB.Preload("Commissions").Where("sale_id = ?", saleUUID).
		Find(&payments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}

// DeleteSalePayment removes a payment and refreshes the sale status
func DeleteSalePayment(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	paymentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	payment, err := loadOwnedPayment(tx, userID, paymentUUID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := tx.Where("sale_payment_id = ?", payment.ID).
		Delete(&models.SaleCommission{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete commissions")
		return
	}

	if err := tx.Delete(payment).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete payment")
		return
	}

	if err := services.RefreshSaleStatus(tx, payment.SaleID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update sale status")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}

// CreateSaleCommission records the brokerage on a payment. When no
// amount is given it defaults to the sale's commission rate applied to
// the payment amount.
func CreateSaleCommission(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	paymentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID format")
		return
	}

	var input CreateSaleCommissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	payment, err := loadOwnedPayment(config.DB, userID, paymentUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	amount := 0.0
	if input.Amount != nil {
		amount = utils.Round2(*input.Amount)
	} else {
		var sale models.Sale
		if err := config.DB.First(&sale, "id = ?", payment.SaleID).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		amount = utils.Round2(payment.Amount * sale.CommissionRate / 100)
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}

	commission := models.SaleCommission{
		SalePaymentID:   payment.ID,
		Amount:          amount,
		PaymentMethod:   paymentMethod,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
	}

	if err := config.DB.Create(&commission).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create commission")
		return
	}

	c.JSON(http.StatusCreated, commission)
}

// DeleteSaleCommission removes a commission record
func DeleteSaleCommission(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	commissionUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid commission ID format")
		return
	}

	var commission models.SaleCommission
	if err := config.DB.Joins("JOIN sale_payments ON sale_payments.id = sale_commissions.sale_payment_id").
		Joins("JOIN sales ON sales.id = sale_payments.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sale_commissions.id = ?", userID, commissionUUID).
		First(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Commission not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := config.DB.Delete(&commission).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete commission")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Commission deleted successfully"})
}
