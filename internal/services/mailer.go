package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"payfastBack/internal/config"
	"payfastBack/internal/models"
	"payfastBack/internal/pricing"
)

// Email is a fully built invoice message.
type Email struct {
	From           string
	To             []string
	Cc             []string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Mailer delivers an email and reports the outcome as a delivery result.
type Mailer interface {
	Send(ctx context.Context, msg Email) models.DeliveryResult
}

// BuildInvoiceEmail assembles the message sent to the buyer. The admin
// address is copied, and used as the recipient when the buyer left none.
func BuildInvoiceEmail(smtp config.SMTP, company config.Company, currency string, inv models.Invoice, pdf []byte) Email {
	msg := Email{
		From:           smtp.FromEmail,
		Subject:        fmt.Sprintf("%s Invoice %s", company.Name, inv.InvoiceNo),
		AttachmentName: inv.InvoiceNo + ".pdf",
		Attachment:     pdf,
	}
	if to := strings.TrimSpace(inv.CustomerEmail); to != "" {
		msg.To = []string{to}
		if smtp.AdminEmail != "" && !strings.EqualFold(smtp.AdminEmail, to) {
			msg.Cc = []string{smtp.AdminEmail}
		}
	} else if smtp.AdminEmail != "" {
		msg.To = []string{smtp.AdminEmail}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", inv.CustomerName)
	b.WriteString("Please find your invoice attached.\n\n")
	fmt.Fprintf(&b, "Invoice: %s\n", inv.InvoiceNo)
	fmt.Fprintf(&b, "SKU: %s\n", inv.SKU)
	fmt.Fprintf(&b, "Amount: %s\n", pricing.Format(currency, inv.Amount))
	fmt.Fprintf(&b, "PayFast ID: %s\n\n", inv.PFPaymentID)
	fmt.Fprintf(&b, "Regards,\n%s", company.Name)
	msg.Body = b.String()
	return msg
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Secure
	return &SMTPMailer{dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Email) models.DeliveryResult {
	res := models.DeliveryResult{Channel: models.ChannelEmail}
	if len(msg.To) == 0 {
		res.Err = errors.New("email: no recipient")
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if err := m.dialer.DialAndSend(toMessage(msg)); err != nil {
		res.Err = fmt.Errorf("email: send %s: %w", msg.Subject, err)
		return res
	}
	res.Detail = strings.Join(msg.To, ",")
	return res
}

func toMessage(msg Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if msg.AttachmentName != "" {
		data := msg.Attachment
		m.Attach(msg.AttachmentName,
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return m
}
