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

// CreateBookInput defines the expected JSON structure for creating a book
type CreateBookInput struct {
	Name           string     `json:"name" binding:"required"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	OpeningBalance float64    `json:"openingBalance"`
	Notes          string     `json:"notes"`
}

// UpdateBookInput defines the expected JSON structure for updating a book
type UpdateBookInput struct {
	Name           *string    `json:"name"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	OpeningBalance *float64   `json:"openingBalance"`
	ClosingBalance *float64   `json:"closingBalance"`
	Status         *string    `json:"status" binding:"omitempty,oneof=OPEN CLOSED"`
	Notes          *string    `json:"notes"`
}

// CreateBook creates a new accounting book for the user
func CreateBook(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existingBook models.Book
	if err := config.DB.Where("user_id = ? AND name = ?", userID, input.Name).
		First(&existingBook).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Book with this name already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	book := models.Book{
		UserID:         userID,
		Name:           input.Name,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		OpeningBalance: input.OpeningBalance,
		Status:         models.BookOpen,
		Notes:          input.Notes,
	}

	if err := config.DB.Create(&book).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create book")
		return
	}

	c.JSON(http.StatusCreated, book)
}

// GetBooks retrieves all books of the user
func GetBooks(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var books []models.Book
	if err := config.DB.Where("user_id = ?", userID).Find(&books).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve books")
		return
	}

	c.JSON(http.StatusOK, books)
}

// GetBook retrieves a specific book by ID
func GetBook(c *gin.Context) {
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

	var book models.Book
	if err := config.DB.Where("user_id = ? AND id = ?", userID, bookUUID).
		First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Book not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, book)
}

// UpdateBook updates an existing book; setting status CLOSED records
// the closing balance.
func UpdateBook(c *gin.Context) {
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

	var input UpdateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var book models.Book
	if err := config.DB.Where("user_id = ? AND id = ?", userID, bookUUID).
		First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Book not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		book.Name = *input.Name
	}
	if input.StartDate != nil {
		book.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		book.EndDate = input.EndDate
	}
	if input.OpeningBalance != nil {
		book.OpeningBalance = *input.OpeningBalance
	}
	if input.ClosingBalance != nil {
		book.ClosingBalance = *input.ClosingBalance
	}
	if input.Status != nil {
		book.Status = *input.Status
	}
	if input.Notes != nil {
		book.Notes = *input.Notes
	}

	if err := config.DB.Save(&book).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook soft deletes a book and its sales
func DeleteBook(c *gin.Context) {
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

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var book models.Book
	if err := tx.Where("user_id = ? AND id = ?", userID, bookUUID).
		First(&book).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Book not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := tx.Where("book_id = ?", book.ID).Delete(&models.Sale{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete book sales")
		return
	}

	if err := tx.Delete(&book).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete book")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
