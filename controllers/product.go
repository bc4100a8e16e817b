// controllers/product.go
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

// UpdateProductInput defines the expected JSON structure for updating a
// line item; only fields present in the request are applied.
type UpdateProductInput struct {
	Name         *string  `json:"name"`
	Quantity     *float64 `json:"quantity" binding:"omitempty,gt=0"`
	Unit         *string  `json:"unit"`
	Rate         *float64 `json:"rate" binding:"omitempty,min=0"`
	GstRate      *float64 `json:"gstRate" binding:"omitempty,min=0"`
	DiscountRate *float64 `json:"discountRate" binding:"omitempty,min=0"`
	Notes        *string  `json:"notes"`
}

// loadOwnedProduct fetches a line item through the user's books.
func loadOwnedProduct(db *gorm.DB, userID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.Joins("JOIN sales ON sales.id = products.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND products.id = ?", userID, productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct adds a line item to a sale; the item write and the
// aggregate update share one transaction.
func CreateProduct(c *gin.Context) {
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

	var input SaleProductInput
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

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	product, err := services.AddProduct(tx, sale.ID, services.ProductInput{
		Name:         input.Name,
		Quantity:     input.Quantity,
		Unit:         input.Unit,
		Rate:         input.Rate,
		GstRate:      input.GstRate,
		DiscountRate: input.DiscountRate,
		Notes:        input.Notes,
	})
	if err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	tx.Commit()

	c.JSON(http.StatusCreated, product)
}

// GetProducts lists the line items of a sale
func GetProducts(c *gin.Context) {
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

	var products []models.Product
	if err := config.DB.Where("sale_id = ?", saleUUID).Find(&products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// UpdateProduct updates a line item; a price-affecting change is
// recomputed and its delta propagated to the sale in one transaction.
func UpdateProduct(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	product, err := loadOwnedProduct(tx, userID, productUUID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := services.UpdateProduct(tx, product, services.ProductUpdate{
		Name:         input.Name,
		Quantity:     input.Quantity,
		Unit:         input.Unit,
		Rate:         input.Rate,
		GstRate:      input.GstRate,
		DiscountRate: input.DiscountRate,
		Notes:        input.Notes,
	}); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a line item and reverses its amounts out of the
// sale's aggregates in one transaction.
func DeleteProduct(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	product, err := loadOwnedProduct(tx, userID, productUUID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := services.RemoveProduct(tx, product); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
