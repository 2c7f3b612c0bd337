package email

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Service handles email sending
type Service struct {
	fromEmail   string
	fromName    string
	baseURL     string
	sendGridKey string
	useSendGrid bool
}

// NewService creates a new email service
// If sendGridAPIKey is provided, emails will be sent via SendGrid
// Otherwise, emails will be logged to console (development mode)
func NewService(fromEmail, fromName, baseURL, sendGridAPIKey string) *Service {
	useSendGrid := sendGridAPIKey != ""
	if useSendGrid {
		log.Printf("✅ Email service initialized with SendGrid")
	} else {
		log.Printf("⚠️  Email service in console-only mode (set SENDGRID_API_KEY for production)")
	}

	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		baseURL:     baseURL,
		sendGridKey: sendGridAPIKey,
		useSendGrid: useSendGrid,
	}
}

// SendAffiliateInviteEmail invites a user to activate their affiliate account
func (s *Service) SendAffiliateInviteEmail(toEmail, toName, tenantName string) error {
	dashboardURL := fmt.Sprintf("%s/affiliate/dashboard", s.baseURL)

	subject := fmt.Sprintf("You've been invited to the %s affiliate program", tenantName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Welcome aboard!</h2>
			<p>Hi %s,</p>
			<p>%s has invited you to join their affiliate program on PromoRail.</p>
			<p>Once your account is approved you can join campaigns, share promo links and earn commission on every attributed sale.</p>
			<p><a href="%s" style="background-color: #4CAF50; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Open your dashboard</a></p>
			<p>Thanks,<br>The PromoRail Team</p>
		</body>
		</html>
	`, toName, tenantName, dashboardURL)

	plainText := fmt.Sprintf(`
Hi %s,

%s has invited you to join their affiliate program on PromoRail.

Once your account is approved you can join campaigns, share promo links and earn commission on every attributed sale.

Open your dashboard: %s

Thanks,
The PromoRail Team
	`, toName, tenantName, dashboardURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}
	return s.logEmailToConsole(toEmail, toName, subject, dashboardURL)
}

// SendAffiliateApprovedEmail tells an affiliate their account is active
func (s *Service) SendAffiliateApprovedEmail(toEmail, toName, tenantName string) error {
	dashboardURL := fmt.Sprintf("%s/affiliate/dashboard", s.baseURL)

	subject := fmt.Sprintf("Your %s affiliate account is approved", tenantName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>You're in!</h2>
			<p>Hi %s,</p>
			<p>Your affiliate account with %s has been approved. You can now join campaigns and start earning.</p>
			<p><a href="%s" style="background-color: #4CAF50; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Browse campaigns</a></p>
			<p>Thanks,<br>The PromoRail Team</p>
		</body>
		</html>
	`, toName, tenantName, dashboardURL)

	plainText := fmt.Sprintf(`
Hi %s,

Your affiliate account with %s has been approved. You can now join campaigns and start earning.

Browse campaigns: %s

Thanks,
The PromoRail Team
	`, toName, tenantName, dashboardURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}
	return s.logEmailToConsole(toEmail, toName, subject, dashboardURL)
}

// SendPayoutNotice tells an affiliate a payout went out
func (s *Service) SendPayoutNotice(toEmail, toName string, amount float64, currency string) error {
	payoutsURL := fmt.Sprintf("%s/affiliate/payouts", s.baseURL)

	subject := fmt.Sprintf("Your payout of %.2f %s is on its way", amount, currency)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Payout sent</h2>
			<p>Hi %s,</p>
			<p>We've just sent you a payout of <strong>%.2f %s</strong>. Depending on your bank it may take a few business days to arrive.</p>
			<p><a href="%s" style="background-color: #2196F3; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">View payout history</a></p>
			<p>Thanks,<br>The PromoRail Team</p>
		</body>
		</html>
	`, toName, amount, currency, payoutsURL)

	plainText := fmt.Sprintf(`
Hi %s,

We've just sent you a payout of %.2f %s. Depending on your bank it may take a few business days to arrive.

View payout history: %s

Thanks,
The PromoRail Team
	`, toName, amount, currency, payoutsURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}
	return s.logEmailToConsole(toEmail, toName, subject, payoutsURL)
}

// SendRawEmail sends an email with custom subject and body content.
// Uses SendGrid in production, logs to console in development.
func (s *Service) SendRawEmail(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody)
	}

	log.Printf("📧 [EMAIL] %s", subject)
	log.Printf("   To: %s <%s>", toName, toEmail)
	log.Printf("   From: %s <%s>", s.fromName, s.fromEmail)
	log.Printf("   ⚠️  Email NOT sent (development mode)")
	return nil
}

// sendViaSendGrid sends email using SendGrid API
func (s *Service) sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	client := sendgrid.NewSendClient(s.sendGridKey)
	response, err := client.Send(message)

	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	log.Printf("✅ Email sent successfully to %s (SendGrid status: %d)", toEmail, response.StatusCode)
	return nil
}

// logEmailToConsole logs email details to console (development mode)
func (s *Service) logEmailToConsole(toEmail, toName, subject, actionURL string) error {
	log.Printf("📧 [EMAIL] %s", subject)
	log.Printf("   To: %s <%s>", toName, toEmail)
	log.Printf("   From: %s <%s>", s.fromName, s.fromEmail)
	log.Printf("   Action URL: %s", actionURL)
	log.Printf("   ---")
	log.Printf("   ⚠️  Email NOT sent (development mode)")
	log.Printf("   Set SENDGRID_API_KEY environment variable to enable email sending")
	log.Printf("   ---")
	return nil
}
