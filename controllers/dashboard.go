package controllers

import (
	"net/http"
	"time"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/services"
	"brokerbook-backend/utils"

	"github.com/gin-gonic/gin"
)

type DashboardOverview struct {
	TotalClients    int64   `json:"totalClients"`
	TotalBooks      int64   `json:"totalBooks"`
	TotalSales      int64   `json:"totalSales"`
	MonthlyBilled   float64 `json:"monthlyBilled"`
	MonthlyReceived float64 `json:"monthlyReceived"`
	Outstanding     float64 `json:"outstanding"`
	OverdueCount    int64   `json:"overdueCount"`
}

func GetDashboardOverview(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var overview DashboardOverview

	config.DB.Model(&models.Client{}).Where("user_id = ?", userID).Count(&overview.TotalClients)
	config.DB.Model(&models.Book{}).Where("user_id = ?", userID).Count(&overview.TotalBooks)

	config.DB.Model(&models.Sale{}).
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.deleted_at IS NULL", userID).
		Count(&overview.TotalSales)

	firstOfMonth := utils.BeginningOfMonth(time.Now())
	config.DB.Model(&models.Sale{}).
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.invoice_date >= ? AND sales.deleted_at IS NULL", userID, firstOfMonth).
		Select("COALESCE(SUM(sales.invoice_net_amount), 0)").Scan(&overview.MonthlyBilled)

	config.DB.Model(&models.SalePayment{}).
		Joins("JOIN sales ON sales.id = sale_payments.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sale_payments.created_at >= ? AND sale_payments.deleted_at IS NULL", userID, firstOfMonth).
		Select("COALESCE(SUM(sale_payments.amount), 0)").Scan(&overview.MonthlyReceived)

	// Outstanding = billed minus received across all unpaid sales
	var billed, received float64
	config.DB.Model(&models.Sale{}).
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.status <> ? AND sales.deleted_at IS NULL", userID, models.SalePaid).
		Select("COALESCE(SUM(sales.invoice_net_amount), 0)").Scan(&billed)
	config.DB.Model(&models.SalePayment{}).
		Joins("JOIN sales ON sales.id = sale_payments.sale_id").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.status <> ? AND sale_payments.deleted_at IS NULL", userID, models.SalePaid).
		Select("COALESCE(SUM(sale_payments.amount), 0)").Scan(&received)
	overview.Outstanding = utils.Round2(billed - received)

	config.DB.Model(&models.Sale{}).
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.status = ? AND sales.deleted_at IS NULL", userID, models.SaleOverdue).
		Count(&overview.OverdueCount)

	c.JSON(http.StatusOK, overview)
}
