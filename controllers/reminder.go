// controllers/reminder.go
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

// GetReminderLogs lists the payment reminders sent on behalf of the user
func GetReminderLogs(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var logs []models.ReminderLog
	if err := config.DB.Where("user_id = ?", userID).
		Order("sent_at DESC").
		Limit(100).
		Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	c.JSON(http.StatusOK, logs)
}

// SendSaleReminder triggers an immediate reminder for one sale. The
// per-channel outcome is reported back; one channel failing does not
// block the other.
func SendSaleReminder(reminderService *services.ReminderService, planService *services.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		sale, err := loadOwnedSale(config.DB, userID, saleUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		if sale.Status == models.SalePaid {
			utils.RespondWithError(c, http.StatusBadRequest, "Sale is already paid")
			return
		}

		plan, _, err := planService.ResolveActivePlan(userID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}

		result := reminderService.SendSaleReminder(userID, sale, models.GetPlanLimits(plan))

		c.JSON(http.StatusOK, result)
	}
}
