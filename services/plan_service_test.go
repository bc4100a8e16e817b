package services

import (
	"fmt"
	"testing"
	"time"

	"brokerbook-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
		&models.GoodsReturn{},
		&models.GoodsReturnProduct{},
		&models.SalePayment{},
	))
	return db
}

func createActiveSubscription(t *testing.T, db *gorm.DB, userID uuid.UUID, plan models.PlanName, createdAt time.Time) *models.Subscription {
	t.Helper()
	sub := models.Subscription{
		UserID:        userID,
		PlanName:      plan,
		OrderID:       fmt.Sprintf("ORD-TEST-%s", uuid.NewString()),
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentStatusSuccess,
	}
	require.NoError(t, db.Create(&sub).Error)
	require.NoError(t, db.Model(&sub).Update("created_at", createdAt).Error)
	return &sub
}

func createClients(t *testing.T, db *gorm.DB, userID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&models.Client{
			UserID: userID,
			Name:   fmt.Sprintf("Client %d", i+1),
		}).Error)
	}
}

func TestResolveActivePlanDefaultsToBasic(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)

	plan, sub, err := service.ResolveActivePlan(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, plan)
	assert.Nil(t, sub)
}

func TestResolveActivePlanPicksLatestActive(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	createActiveSubscription(t, db, userID, models.PlanProfessional, time.Now().Add(-48*time.Hour))
	latest := createActiveSubscription(t, db, userID, models.PlanEnterprise, time.Now().Add(-time.Hour))

	plan, sub, err := service.ResolveActivePlan(userID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanEnterprise, plan)
	require.NotNil(t, sub)
	assert.Equal(t, latest.ID, sub.ID)
}

func TestResolveActivePlanIgnoresInactiveRows(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	sub := models.Subscription{
		UserID:        userID,
		PlanName:      models.PlanEnterprise,
		OrderID:       "ORD-TEST-PENDING",
		Status:        models.SubscriptionPending,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(&sub).Error)

	plan, active, err := service.ResolveActivePlan(userID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, plan)
	assert.Nil(t, active)
}

func TestCheckLimitClientsOnBasic(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	createClients(t, db, userID, 4)
	assert.NoError(t, service.CheckLimit(userID, models.ResourceClients))

	createClients(t, db, userID, 1)
	err := service.CheckLimit(userID, models.ResourceClients)
	var denied *PlanDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "Basic plan allows only 5 clients. Upgrade your plan to add more.", denied.Message)
}

func TestCheckLimitUnlimitedOnProfessional(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	createActiveSubscription(t, db, userID, models.PlanProfessional, time.Now())
	createClients(t, db, userID, 25)

	assert.NoError(t, service.CheckLimit(userID, models.ResourceClients))
}

func TestCheckLimitBooksOnBasic(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	require.NoError(t, db.Create(&models.Book{UserID: userID, Name: "FY 2025-26"}).Error)

	err := service.CheckLimit(userID, models.ResourceBooks)
	var denied *PlanDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Message, "allows only 1 books")
}

func TestCheckFeature(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	err := service.CheckFeature(userID, models.FeaturePaymentReminders)
	var denied *PlanDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "The paymentReminders feature is not available on the Basic plan.", denied.Message)

	createActiveSubscription(t, db, userID, models.PlanProfessional, time.Now())
	assert.NoError(t, service.CheckFeature(userID, models.FeaturePaymentReminders))

	err = service.CheckFeature(userID, models.FeatureAnalytics)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "The analytics feature is not available on the Professional plan.", denied.Message)
}

func TestCountUsageInvoicesCurrentMonthOnly(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	book := models.Book{UserID: userID, Name: "FY 2025-26"}
	require.NoError(t, db.Create(&book).Error)

	sellerID, buyerID := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Sale{
			BookID:        book.ID,
			SellerID:      sellerID,
			BuyerID:       buyerID,
			InvoiceNumber: fmt.Sprintf("INV-THIS-%d", i+1),
			InvoiceDate:   time.Now(),
		}).Error)
	}
	require.NoError(t, db.Create(&models.Sale{
		BookID:        book.ID,
		SellerID:      sellerID,
		BuyerID:       buyerID,
		InvoiceNumber: "INV-LAST-1",
		InvoiceDate:   time.Now().AddDate(0, -1, 0),
	}).Error)

	// A sale in someone else's book must not count.
	otherBook := models.Book{UserID: uuid.New(), Name: "Other"}
	require.NoError(t, db.Create(&otherBook).Error)
	require.NoError(t, db.Create(&models.Sale{
		BookID:        otherBook.ID,
		SellerID:      sellerID,
		BuyerID:       buyerID,
		InvoiceNumber: "INV-OTHER-1",
		InvoiceDate:   time.Now(),
	}).Error)

	count, err := service.CountUsage(userID, models.ResourceInvoices)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestDowngradeViolations(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	createActiveSubscription(t, db, userID, models.PlanEnterprise, time.Now())
	createClients(t, db, userID, 7)
	require.NoError(t, db.Create(&models.Book{UserID: userID, Name: "FY 2024-25"}).Error)
	require.NoError(t, db.Create(&models.Book{UserID: userID, Name: "FY 2025-26"}).Error)
	require.NoError(t, db.Create(&models.Book{UserID: userID, Name: "FY 2026-27"}).Error)

	violations, err := service.DowngradeViolations(userID, models.PlanBasic)
	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, "You have 7 clients but the Basic plan allows only 5.", violations[0])
	assert.Equal(t, "You have 3 books but the Basic plan allows only 1.", violations[1])
}

func TestDowngradeViolationsNoneWithinLimits(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	createActiveSubscription(t, db, userID, models.PlanProfessional, time.Now())
	createClients(t, db, userID, 5)
	require.NoError(t, db.Create(&models.Book{UserID: userID, Name: "FY 2025-26"}).Error)

	violations, err := service.DowngradeViolations(userID, models.PlanBasic)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestDowngradeViolationsToProfessionalAlwaysPasses(t *testing.T) {
	db := newTestDB(t)
	service := NewPlanService(db)
	userID := uuid.New()

	createActiveSubscription(t, db, userID, models.PlanEnterprise, time.Now())
	createClients(t, db, userID, 50)

	violations, err := service.DowngradeViolations(userID, models.PlanProfessional)
	require.NoError(t, err)
	assert.Empty(t, violations)
}
