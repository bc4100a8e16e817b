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

// CreateClientInput defines the expected JSON structure for creating a client
type CreateClientInput struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"required"`
	Pan     string `json:"pan"`
	Gstin   string `json:"gstin"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// UpdateClientInput defines the expected JSON structure for updating a client
type UpdateClientInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Pan     *string `json:"pan"`
	Gstin   *string `json:"gstin"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// CreateClient creates a new client for the user
func CreateClient(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if input.Pan != "" && !utils.ValidatePan(input.Pan) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid PAN format")
		return
	}
	if input.Gstin != "" && !utils.ValidateGstin(input.Gstin) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid GSTIN format")
		return
	}

	// Duplicate check on the name+phone+pan combination for this user
	var existingClient models.Client
	if err := config.DB.Where("user_id = ? AND name = ? AND phone = ? AND pan = ?",
		userID, input.Name, input.Phone, input.Pan).
		First(&existingClient).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Client with this name, phone and PAN already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	client := models.Client{
		UserID:  userID,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Pan:     input.Pan,
		Gstin:   input.Gstin,
		Address: input.Address,
		Notes:   input.Notes,
	}

	if err := config.DB.Create(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients retrieves all clients of the user
func GetClients(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var clients []models.Client
	if err := config.DB.Where("user_id = ?", userID).Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}

// GetClient retrieves a specific client by ID
func GetClient(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var client models.Client
	if err := config.DB.Where("user_id = ? AND id = ?", userID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, client)
}

// UpdateClient updates an existing client
func UpdateClient(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var client models.Client
	if err := config.DB.Where("user_id = ? AND id = ?", userID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Phone != nil && !utils.ValidatePhone(*input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if input.Pan != nil && *input.Pan != "" && !utils.ValidatePan(*input.Pan) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid PAN format")
		return
	}
	if input.Gstin != nil && *input.Gstin != "" && !utils.ValidateGstin(*input.Gstin) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid GSTIN format")
		return
	}

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Email != nil {
		client.Email = *input.Email
	}
	if input.Phone != nil {
		client.Phone = *input.Phone
	}
	if input.Pan != nil {
		client.Pan = *input.Pan
	}
	if input.Gstin != nil {
		client.Gstin = *input.Gstin
	}
	if input.Address != nil {
		client.Address = *input.Address
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}

	if err := config.DB.Save(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client
func DeleteClient(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	// A client referenced by sales cannot be removed
	var saleCount int64
	if err := config.DB.Model(&models.Sale{}).
		Where("seller_id = ? OR buyer_id = ?", clientUUID, clientUUID).
		Count(&saleCount).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if saleCount > 0 {
		utils.RespondWithError(c, http.StatusConflict, "Client has sales and cannot be deleted")
		return
	}

	result := config.DB.Where("user_id = ? AND id = ?", userID, clientUUID).
		Delete(&models.Client{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}
