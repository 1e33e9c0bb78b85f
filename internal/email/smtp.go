package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

type SMTPService struct {
	cfg    SMTPConfig
	inbox  string
	logo   *LogoCache
	logger *slog.Logger

	// send is swapped in tests to avoid a real SMTP dial
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPService(cfg SMTPConfig, contactInbox string, logo *LogoCache, logger *slog.Logger) *SMTPService {
	return &SMTPService{
		cfg:    cfg,
		inbox:  contactInbox,
		logo:   logo,
		logger: logger,
		send:   smtp.SendMail,
	}
}

func (s *SMTPService) SendVerificationEmail(ctx context.Context, to, name, verifyURL string, expiresAt time.Time) error {
	minutes := int(time.Until(expiresAt).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	html := fmt.Sprintf(`%s
<h2>Confirm your booking request</h2>
<p>Hi %s,</p>
<p>Please confirm your email address to continue with your reservation. The link expires in %d minutes.</p>
<p><a href="%s" style="background:#1a73e8;color:#fff;padding:12px 24px;border-radius:4px;text-decoration:none">Verify my email</a></p>
<p>If the button does not work, open this link: %s</p>`,
		s.logoHTML(ctx), htmlEscape(name), minutes, verifyURL, verifyURL)

	text := fmt.Sprintf("Hi %s,\n\nConfirm your email address to continue with your reservation (expires in %d minutes):\n%s\n",
		name, minutes, verifyURL)

	return s.deliver(ctx, Email{
		To:       to,
		Subject:  "Confirm your email to complete your booking",
		HTMLBody: html,
		TextBody: text,
	})
}

func (s *SMTPService) SendBookingConfirmation(ctx context.Context, to, name string, summary BookingSummary) error {
	paymentLine := fmt.Sprintf("Total paid: €%.2f", summary.Total)
	if summary.PaymentMethod == "cash" {
		paymentLine = fmt.Sprintf("Deposit paid: €%.2f — remaining €%.2f due at pickup",
			summary.DepositAmount, summary.Total-summary.DepositAmount)
	}

	html := fmt.Sprintf(`%s
<h2>Your booking is confirmed</h2>
<p>Hi %s, your %s is reserved.</p>
<table>
<tr><td>Booking reference</td><td>%s</td></tr>
<tr><td>Pickup</td><td>%s — %s</td></tr>
<tr><td>Return</td><td>%s — %s</td></tr>
<tr><td>Payment</td><td>%s</td></tr>
</table>`,
		s.logoHTML(ctx), htmlEscape(name), htmlEscape(summary.VehicleName),
		summary.BookingID,
		summary.PickupAt.Format("Mon, 2 Jan 2006 15:04"), htmlEscape(summary.PickupLocation),
		summary.ReturnAt.Format("Mon, 2 Jan 2006 15:04"), htmlEscape(summary.ReturnLocation),
		paymentLine)

	text := fmt.Sprintf("Hi %s,\n\nYour %s is reserved.\nReference: %s\nPickup: %s at %s\nReturn: %s at %s\n%s\n",
		name, summary.VehicleName, summary.BookingID,
		summary.PickupAt.Format("Mon, 2 Jan 2006 15:04"), summary.PickupLocation,
		summary.ReturnAt.Format("Mon, 2 Jan 2006 15:04"), summary.ReturnLocation,
		paymentLine)

	return s.deliver(ctx, Email{
		To:       to,
		Subject:  "Booking confirmed — " + summary.VehicleName,
		HTMLBody: html,
		TextBody: text,
	})
}

func (s *SMTPService) SendContactMessage(ctx context.Context, fromName, fromEmail, phone, message string) error {
	html := fmt.Sprintf(`<h2>New contact message</h2>
<p><b>Name:</b> %s<br><b>Email:</b> %s<br><b>Phone:</b> %s</p>
<p>%s</p>`,
		htmlEscape(fromName), htmlEscape(fromEmail), htmlEscape(phone), htmlEscape(message))

	text := fmt.Sprintf("New contact message\nName: %s\nEmail: %s\nPhone: %s\n\n%s\n",
		fromName, fromEmail, phone, message)

	return s.deliver(ctx, Email{
		To:       s.inbox,
		Subject:  "Contact form: " + fromName,
		HTMLBody: html,
		TextBody: text,
	})
}

func (s *SMTPService) deliver(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	raw := s.build(msg)
	if err := s.send(addr, auth, s.cfg.From, []string{msg.To}, raw); err != nil {
		s.logger.Error("email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return fmt.Errorf("failed to send email: %v", err)
	}

	s.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// build assembles a multipart/alternative MIME message with text and HTML parts.
func (s *SMTPService) build(msg Email) []byte {
	const boundary = "openroad-mail-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.TextBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTMLBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

func (s *SMTPService) logoHTML(ctx context.Context) string {
	if s.logo == nil {
		return ""
	}
	url, err := s.logo.Get(ctx)
	if err != nil || url == "" {
		return ""
	}
	return fmt.Sprintf(`<img src="%s" alt="Open Road Rentals" width="160"><br>`, url)
}

func htmlEscape(v string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(v)
}
