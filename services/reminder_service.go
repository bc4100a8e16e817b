// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"brokerbook-backend/models"
	"brokerbook-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// ReminderSendResult reports per-channel success for one reminder run.
type ReminderSendResult struct {
	EmailSent    bool `json:"emailSent"`
	WhatsappSent bool `json:"whatsappSent"`
}

// ReminderService marks past-due invoices OVERDUE and sends payment
// reminders to buyers over email and WhatsApp, subject to the owner's
// plan features.
type ReminderService struct {
	db     *gorm.DB
	plans  *PlanService
	mailer *Mailer
	client *twilio.RestClient
}

func NewReminderService(db *gorm.DB, plans *PlanService, mailer *Mailer) *ReminderService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &ReminderService{
		db:     db,
		plans:  plans,
		mailer: mailer,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

// StartScheduler runs the daily reminder job at 9 AM.
func (s *ReminderService) StartScheduler() {
	c := cron.New()

	c.AddFunc("0 9 * * *", func() {
		s.ProcessDailyReminders()
	})

	c.Start()
	log.Println("Payment reminder scheduler started")
}

// ProcessDailyReminders is the daily job body: flag newly overdue
// invoices, then send reminders per user according to their plan.
func (s *ReminderService) ProcessDailyReminders() {
	log.Println("Starting daily payment reminder processing...")

	if err := s.MarkOverdueSales(); err != nil {
		log.Printf("Failed to mark overdue sales: %v", err)
	}

	var users []models.User
	if err := s.db.Find(&users, "is_verified = ?", true).Error; err != nil {
		log.Printf("Failed to fetch users: %v", err)
		return
	}

	for _, user := range users {
		s.ProcessUserReminders(user.ID)
	}

	log.Println("Daily payment reminder processing completed")
}

// MarkOverdueSales moves unpaid sales past their due window to OVERDUE.
// The due date depends on each sale's own invoice_due_days, so the
// candidates are filtered in Go rather than in SQL.
func (s *ReminderService) MarkOverdueSales() error {
	var sales []models.Sale
	if err := s.db.Select("id", "invoice_date", "invoice_due_days").
		Where("status IN ?", []string{models.SalePending, models.SalePartiallyPaid}).
		Find(&sales).Error; err != nil {
		return err
	}

	now := time.Now()
	var overdue []uuid.UUID
	for i := range sales {
		if sales[i].DueDate().Before(now) {
			overdue = append(overdue, sales[i].ID)
		}
	}
	if len(overdue) == 0 {
		return nil
	}

	return s.db.Model(&models.Sale{}).
		Where("id IN ?", overdue).
		Update("status", models.SaleOverdue).Error
}

// ProcessUserReminders sends reminders for one user's overdue sales,
// gated by the user's plan features.
func (s *ReminderService) ProcessUserReminders(userID uuid.UUID) {
	plan, _, err := s.plans.ResolveActivePlan(userID)
	if err != nil {
		log.Printf("User %s: failed to resolve plan: %v", userID, err)
		return
	}
	limits := models.GetPlanLimits(plan)
	if !limits.PaymentReminders {
		return
	}

	var sales []models.Sale
	err = s.db.Preload("Buyer").
		Joins("JOIN books ON books.id = sales.book_id").
		Where("books.user_id = ? AND sales.status = ?", userID, models.SaleOverdue).
		Find(&sales).Error
	if err != nil {
		log.Printf("User %s: failed to fetch overdue sales: %v", userID, err)
		return
	}

	for i := range sales {
		s.SendSaleReminder(userID, &sales[i], limits)
	}
}

// SendSaleReminder sends the reminder for one sale over every channel
// the plan allows. A failure on one channel does not block the other;
// each attempt is logged and the per-channel outcome returned.
func (s *ReminderService) SendSaleReminder(userID uuid.UUID, sale *models.Sale, limits models.PlanLimits) ReminderSendResult {
	var result ReminderSendResult
	if sale.Buyer == nil {
		var buyer models.Client
		if err := s.db.First(&buyer, "id = ?", sale.BuyerID).Error; err != nil {
			log.Printf("Sale %s: buyer not found: %v", sale.ID, err)
			return result
		}
		sale.Buyer = &buyer
	}

	message := fmt.Sprintf(
		"Hi %s, invoice %s of amount %.2f was due on %s.",
		sale.Buyer.Name, sale.InvoiceNumber, sale.InvoiceNetAmount,
		sale.DueDate().Format("02 Jan 2006"))
	if days := utils.DaysBetween(sale.DueDate(), time.Now()); days > 0 {
		message = fmt.Sprintf(
			"Hi %s, invoice %s of amount %.2f is %d days past its due date of %s.",
			sale.Buyer.Name, sale.InvoiceNumber, sale.InvoiceNetAmount,
			days, sale.DueDate().Format("02 Jan 2006"))
	}
	message += " Kindly arrange the payment."

	if limits.PaymentReminders && sale.Buyer.Email != "" {
		err := s.mailer.Send(context.Background(), sale.Buyer.Email,
			"Payment reminder: invoice "+sale.InvoiceNumber, message)
		result.EmailSent = err == nil
		s.logReminder(userID, sale.ID, models.ReminderChannelEmail, message, err)
	}

	if limits.WhatsappAutomation && strings.HasPrefix(sale.Buyer.Phone, "+") {
		err := s.sendWhatsapp(sale.Buyer.Phone, message)
		result.WhatsappSent = err == nil
		s.logReminder(userID, sale.ID, models.ReminderChannelWhatsapp, message, err)
	}

	return result
}

func (s *ReminderService) sendWhatsapp(phone, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + phone)
	params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	params.SetBody(message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.Sid != nil {
		log.Printf("WhatsApp reminder sent to %s, SID: %s", phone, *resp.Sid)
	}
	return nil
}

func (s *ReminderService) logReminder(userID, saleID uuid.UUID, channel, message string, sendErr error) {
	status := models.ReminderStatusSent
	errorMsg := ""
	if sendErr != nil {
		log.Printf("Failed to send %s reminder for sale %s: %v", channel, saleID, sendErr)
		status = models.ReminderStatusFailed
		errorMsg = sendErr.Error()
	}

	entry := models.ReminderLog{
		UserID:       userID,
		SaleID:       saleID,
		Channel:      channel,
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		SentAt:       time.Now(),
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("Failed to log reminder for sale %s: %v", saleID, err)
	}
}
