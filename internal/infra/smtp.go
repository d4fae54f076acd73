package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"posagent/internal/config"
)

// Mailer sends back-office alert emails. Unconfigured SMTP disables it —
// a register must keep selling whether or not anyone reads email.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	to       string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		to:       cfg.AlertEmail,
	}
}

// Enabled reports whether the mailer has somewhere to send.
func (m *Mailer) Enabled() bool { return m.host != "" && m.to != "" }

// SendAlert delivers a plain-text alert to the configured back-office address.
func (m *Mailer) SendAlert(subject, body string) error {
	if !m.Enabled() {
		return nil
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{m.to}
	e.Subject = subject
	e.Text = []byte(body)

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
