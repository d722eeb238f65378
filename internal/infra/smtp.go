package infra

import (
	"fmt"
	"net/smtp"

	"github.com/tegar-arsya/hanadap-sub000/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends decision notices over SMTP. Every send goes through a circuit
// breaker so a dead mail server fails jobs fast instead of tying up workers.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	cb       *CircuitBreaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       NewCircuitBreaker(DefaultCBConfig()),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.host != "" }

// State exposes the breaker state for the health endpoint.
func (m *Mailer) State() CBState { return m.cb.State() }

// KirimPemberitahuan mails a notice with an optional PDF attachment.
func (m *Mailer) KirimPemberitahuan(to, subject, body, pdfPath string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return m.cb.Execute(func() error { return e.Send(m.addr, auth) })
}
