// services/plan_service.go
package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"brokerbook-backend/models"
	"brokerbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanDeniedError carries the user-facing message for a plan-limit or
// feature rejection. Callers map it to a 403.
type PlanDeniedError struct {
	Message string
}

func (e *PlanDeniedError) Error() string { return e.Message }

// PlanService resolves the effective plan of a user and enforces the
// plan's resource limits and feature flags.
type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// ResolveActivePlan returns the plan of the most recent ACTIVE
// subscription, or Basic with a nil record when none exists. A user
// without a subscription row is a normal, common state.
func (s *PlanService) ResolveActivePlan(userID uuid.UUID) (models.PlanName, *models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PlanBasic, nil, nil
		}
		return models.PlanBasic, nil, err
	}
	return sub.PlanName, &sub, nil
}

// CheckLimit rejects with a PlanDeniedError when the user already holds
// as many resources as the plan allows. A limit of -1 means unlimited.
func (s *PlanService) CheckLimit(userID uuid.UUID, resource models.Resource) error {
	plan, _, err := s.ResolveActivePlan(userID)
	if err != nil {
		return err
	}

	limit := models.GetPlanLimits(plan).Limit(resource)
	if limit == models.Unlimited {
		return nil
	}

	count, err := s.CountUsage(userID, resource)
	if err != nil {
		return err
	}

	if count >= limit {
		return &PlanDeniedError{
			Message: fmt.Sprintf("%s plan allows only %d %s. Upgrade your plan to add more.", plan, limit, resource),
		}
	}
	return nil
}

// CheckFeature rejects with a PlanDeniedError when the plan does not
// include the named feature.
func (s *PlanService) CheckFeature(userID uuid.UUID, feature models.Feature) error {
	plan, _, err := s.ResolveActivePlan(userID)
	if err != nil {
		return err
	}

	if !models.GetPlanLimits(plan).HasFeature(feature) {
		return &PlanDeniedError{
			Message: fmt.Sprintf("The %s feature is not available on the %s plan.", feature, plan),
		}
	}
	return nil
}

// CountUsage counts the resources a user currently holds. Invoices are
// counted through the user's books, limited to the current calendar month.
func (s *PlanService) CountUsage(userID uuid.UUID, resource models.Resource) (int64, error) {
	var count int64
	switch resource {
	case models.ResourceClients:
		err := s.db.Model(&models.Client{}).Where("user_id = ?", userID).Count(&count).Error
		return count, err
	case models.ResourceBooks:
		err := s.db.Model(&models.Book{}).Where("user_id = ?", userID).Count(&count).Error
		return count, err
	case models.ResourceInvoices:
		monthStart := utils.BeginningOfMonth(time.Now())
		monthEnd := monthStart.AddDate(0, 1, 0)
		err := s.db.Model(&models.Sale{}).
			Joins("JOIN books ON books.id = sales.book_id").
			Where("books.user_id = ? AND sales.invoice_date >= ? AND sales.invoice_date < ? AND sales.deleted_at IS NULL", userID, monthStart, monthEnd).
			Count(&count).Error
		return count, err
	}
	return 0, fmt.Errorf("unknown resource type: %s", resource)
}

// DowngradeViolations recounts usage against the target plan and
// returns one message per exceeded limit. An empty list means the
// downgrade may proceed.
func (s *PlanService) DowngradeViolations(userID uuid.UUID, target models.PlanName) ([]string, error) {
	limits := models.GetPlanLimits(target)
	var violations []string

	checks := []struct {
		resource models.Resource
		limit    int64
		noun     string
	}{
		{models.ResourceClients, limits.MaxClients, "clients"},
		{models.ResourceBooks, limits.MaxBooks, "books"},
		{models.ResourceInvoices, limits.MaxInvoicesPerMonth, "invoices this month"},
	}

	for _, check := range checks {
		if check.limit == models.Unlimited {
			continue
		}
		count, err := s.CountUsage(userID, check.resource)
		if err != nil {
			return nil, err
		}
		if count > check.limit {
			violations = append(violations,
				fmt.Sprintf("You have %d %s but the %s plan allows only %d.", count, check.noun, target, check.limit))
		}
	}

	return violations, nil
}

// RequireLimit is a gin middleware run before create endpoints.
func (s *PlanService) RequireLimit(resource models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		if err := s.CheckLimit(userID, resource); err != nil {
			var denied *PlanDeniedError
			if errors.As(err, &denied) {
				utils.RespondWithError(c, http.StatusForbidden, denied.Message)
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		c.Next()
	}
}

// RequireFeature is a gin middleware guarding feature-gated endpoints.
func (s *PlanService) RequireFeature(feature models.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		if err := s.CheckFeature(userID, feature); err != nil {
			var denied *PlanDeniedError
			if errors.As(err, &denied) {
				utils.RespondWithError(c, http.StatusForbidden, denied.Message)
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		c.Next()
	}
}

// UserIDFromContext parses the userId claim set by the auth middleware.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("userId")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
