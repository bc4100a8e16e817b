// services/mailer.go
package services

import (
	"context"
	"fmt"
	"os"

	"github.com/mrz1836/postmark"
)

// Mailer sends transactional email through Postmark.
type Mailer struct {
	client *postmark.Client
	from   string
}

func NewMailer() *Mailer {
	return &Mailer{
		client: postmark.NewClient(
			os.Getenv("POSTMARK_SERVER_TOKEN"),
			os.Getenv("POSTMARK_ACCOUNT_TOKEN"),
		),
		from: os.Getenv("MAIL_FROM"),
	}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.from,
		To:       to,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		return err
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}

// SendOtp emails a verification code valid for five minutes.
func (m *Mailer) SendOtp(ctx context.Context, to, code string) error {
	body := fmt.Sprintf("Your BrokerBook verification code is %s. It expires in 5 minutes.", code)
	return m.Send(ctx, to, "Your verification code", body)
}
