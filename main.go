package main

import (
	"fmt"
	"log"
	"os"

	"brokerbook-backend/config"
	"brokerbook-backend/models"
	"brokerbook-backend/routes"
	"brokerbook-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Otp{},
		&models.Subscription{},
		&models.Book{},
		&models.Client{},
		&models.Sale{},
		&models.Product{},
		&models.GoodsReturn{},
		&models.GoodsReturnProduct{},
		&models.SalePayment{},
		&models.SaleCommission{},
		&models.ReminderLog{},
	)
}

func main() {

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	planService := services.NewPlanService(config.DB)
	mailer := services.NewMailer()
	reminderService := services.NewReminderService(config.DB, planService, mailer)
	reminderService.StartScheduler()

	r := routes.SetupRouter(planService, reminderService, mailer)
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
