package service

import (
	"fmt"
	"log"
	"net/http"

	"lizza/config"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailService delivers onboarding credential emails through SendGrid.
// Delivery is fire-and-forget: a failed send is logged, never surfaced to the
// onboarding request.
type MailService struct {
	cfg  *config.MailConfig
	from *sgmail.Email
}

func NewMailService(cfg *config.MailConfig) *MailService {
	return &MailService{
		cfg:  cfg,
		from: sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
	}
}

// SendOnboarding mails the generated login credentials to the employee's
// personal address.
func (s *MailService) SendOnboarding(personalEmail, fullName, loginEmail, tempPassword string) {
	body := fmt.Sprintf(`Dear %s,

Welcome to the team! Your account has been securely created.

Login Details:
--------------------------------
Portal URL: %s
Official Email: %s
Temporary Password: %s
--------------------------------
IMPORTANT: For security, you are required to change your password immediately upon first login.
`, fullName, s.cfg.PortalURL, loginEmail, tempPassword)

	if s.cfg.SendgridKey == "" {
		log.Printf("[mail] sendgrid disabled, skipping onboarding mail to %s", personalEmail)
		return
	}
	to := sgmail.NewEmail(fullName, personalEmail)
	msg := sgmail.NewSingleEmail(s.from, "Welcome to LIZZA - Your Login Credentials", to, body, "")
	go func() {
		resp, err := sendgrid.NewSendClient(s.cfg.SendgridKey).Send(msg)
		if err != nil {
			log.Printf("[mail] onboarding mail to %s failed: %v", personalEmail, err)
			return
		}
		if resp.StatusCode >= http.StatusBadRequest {
			log.Printf("[mail] onboarding mail to %s rejected: %d %s", personalEmail, resp.StatusCode, resp.Body)
		}
	}()
}
