// controllers/subscription.go
package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/services"
	"brokerbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscribeInput struct {
	PlanName models.PlanName `json:"planName" binding:"required"`
	Duration int             `json:"duration" binding:"min=0"`
}

type ConfirmPaymentInput struct {
	OrderID       string `json:"orderId" binding:"required"`
	PaymentStatus string `json:"paymentStatus" binding:"required,oneof=SUCCESS FAILED"`
}

type ChangePlanInput struct {
	PlanName models.PlanName `json:"planName" binding:"required"`
	Duration int             `json:"duration" binding:"min=0"`
}

func newOrderID() string {
	return "ORD-" + time.Now().Format("20060102150405") + "-" + utils.GenerateRandomString(8)
}

// newSubscriptionRow builds a row for the given plan; Basic is free and
// active immediately, paid plans wait for payment confirmation.
func newSubscriptionRow(userID uuid.UUID, plan models.PlanName, duration int) models.Subscription {
	limits := models.GetPlanLimits(plan)

	sub := models.Subscription{
		UserID:    userID,
		PlanName:  plan,
		PlanPrice: limits.MonthlyPrice * float64(duration),
		Duration:  duration,
		OrderID:   newOrderID(),
		Status:    models.SubscriptionPending,
	}

	if plan == models.PlanBasic {
		sub.PlanPrice = 0
		sub.Status = models.SubscriptionActive
		sub.PaymentStatus = models.PaymentStatusSuccess
		now := time.Now()
		sub.StartDate = &now
		if duration > 0 {
			end := now.AddDate(0, duration, 0)
			sub.EndDate = &end
		}
	}

	return sub
}

// GetPlans lists the static plan table
func GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, models.AllPlans())
}

// GetActiveSubscription returns the user's effective plan
func GetActiveSubscription(planService *services.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c)
		if !ok {
			utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		plan, sub, err := planService.ResolveActivePlan(userID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"planName":     plan,
			"limits":       models.GetPlanLimits(plan),
			"subscription": sub,
		})
	}
}

// Subscribe creates the user's first subscription. Basic activates
// immediately; paid plans create a PENDING order to be confirmed by the
// payment callback.
func Subscribe(planService *services.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c)
		if !ok {
			utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		var input SubscribeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		if !input.PlanName.IsValid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown plan: "+string(input.PlanName))
			return
		}

		_, existing, err := planService.ResolveActivePlan(userID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if existing != nil {
			utils.RespondWithError(c, http.StatusConflict, "An active subscription already exists; use upgrade or downgrade")
			return
		}

		sub := newSubscriptionRow(userID, input.PlanName, input.Duration)
		if err := config.DB.Create(&sub).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create subscription")
			return
		}

		c.JSON(http.StatusCreated, sub)
	}
}

// ConfirmPayment models the payment-gateway callback: a successful
// payment activates the PENDING order.
func ConfirmPayment(c *gin.Context) {
	var input ConfirmPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var sub models.Subscription
	if err := config.DB.Where("order_id = ?", input.OrderID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Order not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if sub.Status != models.SubscriptionPending {
		utils.RespondWithError(c, http.StatusConflict, "Order already processed")
		return
	}

	if input.PaymentStatus == "FAILED" {
		if err := config.DB.Model(&sub).Updates(map[string]interface{}{
			"status":         models.SubscriptionCancelled,
			"payment_status": models.PaymentStatusFailed,
		}).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update subscription")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment failed, order cancelled"})
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Another order may have been confirmed while this one was pending;
	// supersede any ACTIVE row so the user never holds two.
	if err := tx.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ? AND id <> ?", sub.UserID, models.SubscriptionActive, sub.ID).
		Update("status", models.SubscriptionCancelled).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to activate subscription")
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         models.SubscriptionActive,
		"payment_status": models.PaymentStatusSuccess,
		"start_date":     &now,
	}
	if sub.Duration > 0 {
		end := now.AddDate(0, sub.Duration, 0)
		updates["end_date"] = &end
	}

	if err := tx.Model(&sub).Updates(updates).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to activate subscription")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Subscription activated"})
}

// UpgradePlan moves a Basic user to a paid plan. Upgrading is only
// valid from Basic; switching between paid plans is rejected.
func UpgradePlan(planService *services.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c)
		if !ok {
			utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		var input ChangePlanInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		if !input.PlanName.IsValid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown plan: "+string(input.PlanName))
			return
		}

		currentPlan, currentSub, err := planService.ResolveActivePlan(userID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}

		if currentPlan != models.PlanBasic {
			utils.RespondWithError(c, http.StatusBadRequest, "Upgrades are only available from the Basic plan")
			return
		}
		if input.PlanName == models.PlanBasic {
			utils.RespondWithError(c, http.StatusBadRequest, "Already on the Basic plan")
			return
		}

		tx := config.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if currentSub != nil {
			if err := tx.Model(currentSub).Update("status", models.SubscriptionUpgraded).Error; err != nil {
				tx.Rollback()
				utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update subscription")
				return
			}
		}

		sub := newSubscriptionRow(userID, input.PlanName, input.Duration)
		if err := tx.Create(&sub).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create subscription")
			return
		}

		tx.Commit()

		c.JSON(http.StatusCreated, sub)
	}
}

// DowngradePlan moves a paid user to a lower plan, subject to usage
// checks against the target plan's limits.
func DowngradePlan(planService *services.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c)
		if !ok {
			utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		var input ChangePlanInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		if !input.PlanName.IsValid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown plan: "+string(input.PlanName))
			return
		}

		currentPlan, currentSub, err := planService.ResolveActivePlan(userID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}

		if input.PlanName.Level() >= currentPlan.Level() {
			utils.RespondWithError(c, http.StatusBadRequest, "Requested plan is not a downgrade")
			return
		}

		violations, err := planService.DowngradeViolations(userID, input.PlanName)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if len(violations) > 0 {
			utils.RespondWithError(c, http.StatusForbidden, strings.Join(violations, " "))
			return
		}

		tx := config.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if currentSub != nil {
			if err := tx.Model(currentSub).Update("status", models.SubscriptionDowngraded).Error; err != nil {
				tx.Rollback()
				utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update subscription")
				return
			}
		}

		// The lower tier takes effect right away; the user keeps an
		// ACTIVE subscription throughout.
		sub := newSubscriptionRow(userID, input.PlanName, input.Duration)
		now := time.Now()
		sub.Status = models.SubscriptionActive
		sub.PaymentStatus = models.PaymentStatusSuccess
		sub.StartDate = &now
		if input.Duration > 0 {
			end := now.AddDate(0, input.Duration, 0)
			sub.EndDate = &end
		}
		if err := tx.Create(&sub).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create subscription")
			return
		}

		tx.Commit()

		c.JSON(http.StatusCreated, sub)
	}
}
