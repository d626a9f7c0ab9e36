package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	// recipient of operator notifications
	Operator string `json:"operator"`
}

// sends operator-facing email notifications. the zero-value notifier
// is valid and drops every message, so callers don't need to branch on
// whether smtp is configured.
type Notifier struct {
	config SmtpConfig
}

func New(config SmtpConfig) Notifier {
	return Notifier{config: config}
}

func (n Notifier) Enabled() bool {
	return n.config.Server != "" && n.config.Operator != ""
}

func (n Notifier) Send(ctx context.Context, subject, body string) error {
	if !n.Enabled() {
		return nil
	}

	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Alumni Sync <%s>", n.config.EmailAddress)
	mail.To = []string{n.config.Operator}
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
