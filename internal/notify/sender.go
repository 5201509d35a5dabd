package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	texttemplate "text/template"

	gopkgmail "gopkg.in/gomail.v2"
)

type Email struct {
	To       string
	Subject  string
	Template string // имя шаблона без расширения, например "order_confirmation"
	Data     map[string]any
}

type Sender interface {
	Send(e Email) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	SSL      bool
}

// EmailSender рендерит <tmpl>.html и <tmpl>.txt из каталога шаблонов и
// отправляет письмо через SMTP.
type EmailSender struct {
	smtp    SMTPConfig
	tmplDir string
}

func NewEmailSender(smtp SMTPConfig, tmplDir string) *EmailSender {
	return &EmailSender{smtp: smtp, tmplDir: tmplDir}
}

func (s *EmailSender) Send(e Email) error {
	m, err := s.Build(e)
	if err != nil {
		return err
	}

	d := gopkgmail.NewDialer(s.smtp.Host, s.smtp.Port, s.smtp.User, s.smtp.Password)
	d.SSL = s.smtp.SSL
	return d.DialAndSend(m)
}

// Build собирает сообщение без отправки.
func (s *EmailSender) Build(e Email) (*gopkgmail.Message, error) {
	htmlBody, err := s.renderHTML(e.Template, e.Data)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	plainBody, err := s.renderPlain(e.Template, e.Data)
	if err != nil {
		return nil, fmt.Errorf("render plain: %w", err)
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.smtp.From)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)
	return m, nil
}

func (s *EmailSender) renderHTML(name string, data map[string]any) (string, error) {
	content, err := os.ReadFile(filepath.Join(s.tmplDir, name+".html"))
	if err != nil {
		return "", err
	}
	tmpl, err := htmltemplate.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *EmailSender) renderPlain(name string, data map[string]any) (string, error) {
	content, err := os.ReadFile(filepath.Join(s.tmplDir, name+".txt"))
	if err != nil {
		return "", err
	}
	tmpl, err := texttemplate.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
