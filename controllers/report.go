// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/services"
	"brokerbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportController handles the analytics reporting surface
type ReportController struct{}

// ReceivableSummary is one buyer's outstanding position
type ReceivableSummary struct {
	ClientID    uuid.UUID `json:"clientId"`
	ClientName  string    `json:"clientName"`
	Billed      float64   `json:"billed"`
	Received    float64   `json:"received"`
	Outstanding float64   `json:"outstanding"`
}

// CommissionSummary aggregates brokerage per month
type CommissionSummary struct {
	Month      string  `json:"month"`
	Commission float64 `json:"commission"`
}

type AnalyticsSummary struct {
	CurrentMonthBilled  float64             `json:"currentMonthBilled"`
	PreviousMonthBilled float64             `json:"previousMonthBilled"`
	MonthGrowth         float64             `json:"monthGrowth"`
	TopReceivables      []ReceivableSummary `json:"topReceivables"`
	Commissions         []CommissionSummary `json:"commissions"`
}

func (rc *ReportController) billedBetween(userID uuid.UUID, from, to time.Time) float64 {
	var total float64
	config.DB.Model(&models.Sale{}).
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.invoice_date >= ? AND sales.invoice_date < ? AND sales.deleted_at IS NULL",
			userID, from, to).
		Select("COALESCE(SUM(sales.invoice_net_amount), 0)").Scan(&total)
	return total
}

// GetReportAnalytics returns the receivables and commission report
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	now := time.Now()
	monthStart := utils.BeginningOfMonth(now)
	nextMonth := monthStart.AddDate(0, 1, 0)
	prevMonth := monthStart.AddDate(0, -1, 0)

	summary := AnalyticsSummary{
		CurrentMonthBilled:  rc.billedBetween(userID, monthStart, nextMonth),
		PreviousMonthBilled: rc.billedBetween(userID, prevMonth, monthStart),
	}

	if summary.PreviousMonthBilled > 0 {
		summary.MonthGrowth = utils.Round2(
			(summary.CurrentMonthBilled - summary.PreviousMonthBilled) / summary.PreviousMonthBilled * 100)
	}

	// Top outstanding buyers
	rows, err := config.DB.Raw(`
		SELECT c.id AS client_id, c.name AS client_name,
		       COALESCE(SUM(s.invoice_net_amount), 0) AS billed,
		       COALESCE((SELECT SUM(p.amount) FROM sale_payments p
		                 WHERE p.sale_id IN (SELECT id FROM sales WHERE buyer_id = c.id)
		                 AND p.deleted_at IS NULL), 0) AS received
		FROM sales s
		JOIN books b ON b.id = s.book_id
		JOIN clients c ON c.id = s.buyer_id
		WHERE b.user_id = ? AND s.deleted_at IS NULL AND s.status <> 'PAID'
		GROUP BY c.id, c.name
		ORDER BY billed DESC
		LIMIT 10
	`, userID).Rows()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build receivables report")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var r ReceivableSummary
		if err := rows.Scan(&r.ClientID, &r.ClientName, &r.Billed, &r.Received); err != nil {
			continue
		}
		r.Outstanding = utils.Round2(r.Billed - r.Received)
		summary.TopReceivables = append(summary.TopReceivables, r)
	}

	// Commission collected per month, last 6 months
	var commissions []CommissionSummary
	config.DB.Raw(`
		SELECT TO_CHAR(sc.created_at, 'YYYY-MM') AS month,
		       COALESCE(SUM(sc.amount), 0) AS commission
		FROM sale_commissions sc
		JOIN sale_payments sp ON sp.id = sc.sale_payment_id
		JOIN sales s ON s.id = sp.sale_id
		JOIN books b ON b.id = s.book_id
		WHERE b.user_id = ? AND sc.deleted_at IS NULL
		AND sc.created_at >= ?
		GROUP BY TO_CHAR(sc.created_at, 'YYYY-MM')
		ORDER BY month
	`, userID, monthStart.AddDate(0, -6, 0)).Scan(&commissions)
	summary.Commissions = commissions

	c.JSON(http.StatusOK, summary)
}
