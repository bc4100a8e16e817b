// controllers/goods_return.go
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

// GoodsReturnItemInput defines one returned line item
type GoodsReturnItemInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  float64   `json:"quantity" binding:"required,gt=0"`
}

// CreateGoodsReturnInput defines the expected JSON structure for
// creating a goods return against a sale
type CreateGoodsReturnInput struct {
	SaleID uuid.UUID              `json:"saleId" binding:"required"`
	Notes  string                 `json:"notes"`
	Items  []GoodsReturnItemInput `json:"items"`
}

// UpdateGoodsReturnItemInput changes the returned quantity
type UpdateGoodsReturnItemInput struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// loadOwnedGoodsReturn fetches a goods return through the user's books.
func loadOwnedGoodsReturn(db *gorm.DB, userID, goodsReturnID uuid.UUID) (*models.GoodsReturn, error) {
	var gr models.GoodsReturn
	err := db.Joins("JOIN sales ON sales.id = goods_returns.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND goods_returns.id = ?", userID, goodsReturnID).
		First(&gr).Error
	if err != nil {
		return nil, err
	}
	return &gr, nil
}

// loadReturnedProduct fetches the sale product a return item references,
// scoped to the goods return's sale.
func loadReturnedProduct(db *gorm.DB, saleID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.Where("sale_id = ? AND id = ?", saleID, productID).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateGoodsReturn creates a return with its initial items, computing
// amounts from the referenced sale products in one transaction.
func CreateGoodsReturn(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateGoodsReturnInput
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

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	goodsReturn := models.GoodsReturn{
		SaleID: sale.ID,
		Notes:  input.Notes,
	}

	if err := tx.Create(&goodsReturn).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create goods return")
		return
	}

	for _, item := range input.Items {
		product, err := loadReturnedProduct(tx, sale.ID, item.ProductID)
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Product not found: "+item.ProductID.String())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		if _, err := services.AddReturnItem(tx, goodsReturn.ID, product, item.Quantity); err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create return items")
			return
		}
	}

	tx.Commit()

	var created models.GoodsReturn
	if err := config.DB.Preload("Products").First(&created, "id = ?", goodsReturn.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetGoodsReturns lists the returns of one sale
func GetGoodsReturns(c *gin.Context) {
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

	var returns []models.GoodsReturn
	if err := config.DB.Preload("Products").Where("sale_id = ?", saleUUID).
		Find(&returns).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve goods returns")
		return
	}

	c.JSON(http.StatusOK, returns)
}

// AddGoodsReturnItem appends a returned line item to an existing return
func AddGoodsReturnItem(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	returnUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid goods return ID format")
		return
	}

	var input GoodsReturnItemInput
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

	goodsReturn, err := loadOwnedGoodsReturn(tx, userID, returnUUID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Goods return not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	product, err := loadReturnedProduct(tx, goodsReturn.SaleID, input.ProductID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	item, err := services.AddReturnItem(tx, goodsReturn.ID, product, input.Quantity)
	if err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to add return item")
		return
	}

	tx.Commit()

	c.JSON(http.StatusCreated, item)
}

// UpdateGoodsReturnItem changes a returned quantity and propagates the
// delta to the return's aggregates
func UpdateGoodsReturnItem(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	itemUUID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid return item ID format")
		return
	}

	var input UpdateGoodsReturnItemInput
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

	var item models.GoodsReturnProduct
	if err := tx.Joins("JOIN goods_returns ON goods_returns.id = goods_return_products.goods_return_id").
		Joins("JOIN sales ON sales.id = goods_returns.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND goods_return_products.id = ?", userID, itemUUID).
		First(&item).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Return item not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := services.UpdateReturnItem(tx, &item, &product, input.Quantity); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update return item")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, item)
}

// DeleteGoodsReturnItem removes a returned line item, reversing its
// amounts out of the return's aggregates
func DeleteGoodsReturnItem(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	itemUUID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid return item ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var item models.GoodsReturnProduct
	if err := tx.Joins("JOIN goods_returns ON goods_returns.id = goods_return_products.goods_return_id").
		Joins("JOIN sales ON sales.id = goods_returns.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND goods_return_products.id = ?", userID, itemUUID).
		First(&item).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Return item not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := services.RemoveReturnItem(tx, &item); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete return item")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Return item deleted successfully"})
}

// DeleteGoodsReturn removes a return and its items
func DeleteGoodsReturn(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	returnUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid goods return ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	goodsReturn, err := loadOwnedGoodsReturn(tx, userID, returnUUID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Goods return not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := tx.Where("goods_return_id = ?", goodsReturn.ID).
		Delete(&models.GoodsReturnProduct{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete return items")
		return
	}

	if err := tx.Delete(goodsReturn).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete goods return")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Goods return deleted successfully"})
}
