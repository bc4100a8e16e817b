package routes

import (
	"brokerbook-backend/config"
	"brokerbook-backend/controllers"
	"brokerbook-backend/models"
	"brokerbook-backend/services"
	"brokerbook-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(planService *services.PlanService, reminderService *services.ReminderService, mailer *services.Mailer) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"https://app.brokerbook.in",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/signup", controllers.Signup(mailer))
		auth.POST("/verify-otp", controllers.VerifyOtp)
		auth.POST("/login", controllers.Login)
		auth.POST("/forgot-password", controllers.ForgotPassword(mailer))
		auth.POST("/reset-password", controllers.ResetPassword)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	// Payment gateway callback; authenticated by order id, not JWT
	r.POST("/webhooks/payment", controllers.ConfirmPayment)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Subscription routes
		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.GET("/plans", controllers.GetPlans)
			subscriptions.GET("/active", controllers.GetActiveSubscription(planService))
			subscriptions.POST("", controllers.Subscribe(planService))
			subscriptions.POST("/upgrade", controllers.UpgradePlan(planService))
			subscriptions.POST("/downgrade", controllers.DowngradePlan(planService))
		}

		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", planService.RequireLimit(models.ResourceClients), controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
		}

		// Book routes
		books := api.Group("/books")
		{
			books.POST("", planService.RequireLimit(models.ResourceBooks), controllers.CreateBook)
			books.GET("", controllers.GetBooks)
			books.GET("/:id", controllers.GetBook)
			books.PUT("/:id", controllers.UpdateBook)
			books.DELETE("/:id", controllers.DeleteBook)
			books.GET("/:id/sales", controllers.GetSales)
		}

		// Sale routes
		sales := api.Group("/sales")
		{
			sales.POST("", planService.RequireLimit(models.ResourceInvoices), controllers.CreateSale)
			sales.GET("/:id", controllers.GetSale)
			sales.PUT("/:id", controllers.UpdateSale)
			sales.DELETE("/:id", controllers.DeleteSale)

			sales.POST("/:id/products", controllers.CreateProduct)
			sales.GET("/:id/products", controllers.GetProducts)
			sales.GET("/:id/payments", controllers.GetSalePayments)
			sales.GET("/:id/goods-returns", controllers.GetGoodsReturns)
			sales.POST("/:id/reminders",
				planService.RequireFeature(models.FeaturePaymentReminders),
				controllers.SendSaleReminder(reminderService, planService))
		}

		// Line item routes
		products := api.Group("/products")
		{
			products.PUT("/:id", controllers.UpdateProduct)
			products.DELETE("/:id", controllers.DeleteProduct)
		}

		// Goods return routes
		goodsReturns := api.Group("/goods-returns")
		{
			goodsReturns.POST("", controllers.CreateGoodsReturn)
			goodsReturns.POST("/:id/items", controllers.AddGoodsReturnItem)
			goodsReturns.PUT("/items/:itemId", controllers.UpdateGoodsReturnItem)
			goodsReturns.DELETE("/items/:itemId", controllers.DeleteGoodsReturnItem)
			goodsReturns.DELETE("/:id", controllers.DeleteGoodsReturn)
		}

		// Payment routes
		payments := api.Group("/payments")
		{
			payments.POST("", controllers.CreateSalePayment)
			payments.DELETE("/:id", controllers.DeleteSalePayment)
			payments.POST("/:id/commissions", controllers.CreateSaleCommission)
		}
		api.DELETE("/commissions/:id", controllers.DeleteSaleCommission)

		// Reminder routes
		api.GET("/reminders", controllers.GetReminderLogs)

		// Reports routes
		reportController := controllers.ReportController{}
		api.GET("/reports", planService.RequireFeature(models.FeatureAnalytics), reportController.GetReportAnalytics)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)

		// Profile routes
		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("", controllers.UpdateProfile)
			profile.PUT("/password", controllers.ChangePassword)
		}
	}

	return r
}
