package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"

	"shorts-studio/internal/models"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"
)

//go:embed templates/digest.html
var digestTemplate string

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(digestTemplate))

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   SendFunc
	log    logger.Logger
}

func NewSender(cfg *config.EmailConfig, log logger.Logger) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
		log:    log,
	}
}

// WithSendFunc replaces the SMTP transport. Used by tests.
func (s *Sender) WithSendFunc(fn SendFunc) *Sender {
	s.send = fn
	return s
}

func (s *Sender) SendDigest(report *models.DigestReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Videos) == 0 {
		return nil // Nothing to report
	}

	subject := fmt.Sprintf("Viral Shorts Digest - %d Videos (%s)",
		len(report.Videos), report.Date.Format("Jan 2, 2006"))

	body, err := RenderDigest(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	if err := s.SendHTML(subject, body); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	s.log.Info("Digest email sent", logger.String("to", s.config.ToEmail), logger.Int("videos", len(report.Videos)))
	return nil
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.send(addr, auth, s.config.FromEmail, to, msg)
}

func RenderDigest(report *models.DigestReport) (string, error) {
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}
