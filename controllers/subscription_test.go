package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupSubscriptionRouter wires the subscription handlers against an
// in-memory database with every request authenticated as one user.
func setupSubscriptionRouter(t *testing.T) (*gin.Engine, uuid.UUID) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Subscription{},
		&models.Book{},
		&models.Client{},
		&models.Sale{},
		&models.Product{},
	))
	config.DB = db

	userID := uuid.New()
	planService := services.NewPlanService(db)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", userID.String()) })
	r.GET("/subscriptions/active", GetActiveSubscription(planService))
	r.POST("/subscriptions", Subscribe(planService))
	r.POST("/subscriptions/upgrade", UpgradePlan(planService))
	r.POST("/subscriptions/downgrade", DowngradePlan(planService))
	r.POST("/webhooks/payment", ConfirmPayment)

	return r, userID
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func activeSubscriptions(t *testing.T, userID uuid.UUID) []models.Subscription {
	t.Helper()
	var subs []models.Subscription
	require.NoError(t, config.DB.
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Find(&subs).Error)
	return subs
}

func pendingOrderID(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	var sub models.Subscription
	require.NoError(t, config.DB.
		Where("user_id = ? AND status = ?", userID, models.SubscriptionPending).
		Order("created_at DESC").
		First(&sub).Error)
	return sub.OrderID
}

func TestSubscribeBasicActivatesImmediately(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	w := doJSON(t, r, http.MethodPost, "/subscriptions", gin.H{"planName": "Basic"})
	assert.Equal(t, http.StatusCreated, w.Code)

	subs := activeSubscriptions(t, userID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.PlanBasic, subs[0].PlanName)
	assert.Equal(t, models.PaymentStatusSuccess, subs[0].PaymentStatus)
}

func TestSubscribeRejectedWhileActive(t *testing.T) {
	r, _ := setupSubscriptionRouter(t)

	w := doJSON(t, r, http.MethodPost, "/subscriptions", gin.H{"planName": "Basic"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/subscriptions", gin.H{"planName": "Professional", "duration": 12})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpgradeFromBasicMarksPriorUpgraded(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	w := doJSON(t, r, http.MethodPost, "/subscriptions", gin.H{"planName": "Basic"})
	require.Equal(t, http.StatusCreated, w.Code)
	basicID := activeSubscriptions(t, userID)[0].ID

	w = doJSON(t, r, http.MethodPost, "/subscriptions/upgrade", gin.H{"planName": "Professional", "duration": 12})
	require.Equal(t, http.StatusCreated, w.Code)

	var prior models.Subscription
	require.NoError(t, config.DB.First(&prior, "id = ?", basicID).Error)
	assert.Equal(t, models.SubscriptionUpgraded, prior.Status)

	// The paid order waits for the payment callback.
	assert.Empty(t, activeSubscriptions(t, userID))

	w = doJSON(t, r, http.MethodPost, "/webhooks/payment", gin.H{
		"orderId": pendingOrderID(t, userID), "paymentStatus": "SUCCESS",
	})
	require.Equal(t, http.StatusOK, w.Code)

	subs := activeSubscriptions(t, userID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.PlanProfessional, subs[0].PlanName)
}

func TestUpgradeRejectedFromPaidPlan(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	sub := models.Subscription{
		UserID:        userID,
		PlanName:      models.PlanProfessional,
		OrderID:       "ORD-TEST-PRO",
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentStatusSuccess,
	}
	require.NoError(t, config.DB.Create(&sub).Error)

	w := doJSON(t, r, http.MethodPost, "/subscriptions/upgrade", gin.H{"planName": "Enterprise", "duration": 12})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	subs := activeSubscriptions(t, userID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.PlanProfessional, subs[0].PlanName)
}

func TestDowngradeBlockedLeavesActiveUntouched(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	sub := models.Subscription{
		UserID:        userID,
		PlanName:      models.PlanEnterprise,
		OrderID:       "ORD-TEST-ENT",
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentStatusSuccess,
	}
	require.NoError(t, config.DB.Create(&sub).Error)
	for i := 0; i < 7; i++ {
		require.NoError(t, config.DB.Create(&models.Client{
			UserID: userID,
			Name:   fmt.Sprintf("Client %d", i+1),
		}).Error)
	}

	w := doJSON(t, r, http.MethodPost, "/subscriptions/downgrade", gin.H{"planName": "Basic"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You have 7 clients but the Basic plan allows only 5.")

	subs := activeSubscriptions(t, userID)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
	assert.Equal(t, models.PlanEnterprise, subs[0].PlanName)

	var total int64
	require.NoError(t, config.DB.Model(&models.Subscription{}).
		Where("user_id = ?", userID).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestDowngradeMarksPriorDowngradedAndActivatesTarget(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	sub := models.Subscription{
		UserID:        userID,
		PlanName:      models.PlanEnterprise,
		OrderID:       "ORD-TEST-ENT",
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentStatusSuccess,
	}
	require.NoError(t, config.DB.Create(&sub).Error)

	w := doJSON(t, r, http.MethodPost, "/subscriptions/downgrade", gin.H{"planName": "Professional", "duration": 12})
	require.Equal(t, http.StatusCreated, w.Code)

	var prior models.Subscription
	require.NoError(t, config.DB.First(&prior, "id = ?", sub.ID).Error)
	assert.Equal(t, models.SubscriptionDowngraded, prior.Status)

	subs := activeSubscriptions(t, userID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.PlanProfessional, subs[0].PlanName)
}

func TestDowngradeRejectedToSameOrHigherTier(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	sub := models.Subscription{
		UserID:        userID,
		PlanName:      models.PlanProfessional,
		OrderID:       "ORD-TEST-PRO",
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentStatusSuccess,
	}
	require.NoError(t, config.DB.Create(&sub).Error)

	for _, target := range []string{"Professional", "Enterprise"} {
		w := doJSON(t, r, http.MethodPost, "/subscriptions/downgrade", gin.H{"planName": target})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestConfirmPaymentSupersedesStaleActive(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	// Two orders placed before either payment settles.
	w := doJSON(t, r, http.MethodPost, "/subscriptions", gin.H{"planName": "Professional", "duration": 12})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/subscriptions", gin.H{"planName": "Enterprise", "duration": 12})
	require.Equal(t, http.StatusCreated, w.Code)

	var orders []models.Subscription
	require.NoError(t, config.DB.
		Where("user_id = ? AND status = ?", userID, models.SubscriptionPending).
		Order("id ASC").
		Find(&orders).Error)
	require.Len(t, orders, 2)

	for _, order := range orders {
		w = doJSON(t, r, http.MethodPost, "/webhooks/payment", gin.H{
			"orderId": order.OrderID, "paymentStatus": "SUCCESS",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	subs := activeSubscriptions(t, userID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.PlanEnterprise, subs[0].PlanName)

	var cancelled models.Subscription
	require.NoError(t, config.DB.First(&cancelled, "id = ?", orders[0].ID).Error)
	assert.Equal(t, models.SubscriptionCancelled, cancelled.Status)
}

func TestConfirmPaymentFailureCancelsOrder(t *testing.T) {
	r, userID := setupSubscriptionRouter(t)

	w := doJSON(t, r, http.MethodPost, "/subscriptions", gin.H{"planName": "Professional", "duration": 12})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/webhooks/payment", gin.H{
		"orderId": pendingOrderID(t, userID), "paymentStatus": "FAILED",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, activeSubscriptions(t, userID))

	var sub models.Subscription
	require.NoError(t, config.DB.First(&sub, "user_id = ?", userID).Error)
	assert.Equal(t, models.SubscriptionCancelled, sub.Status)
	assert.Equal(t, models.PaymentStatusFailed, sub.PaymentStatus)
}
