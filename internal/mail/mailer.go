package mail

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path"
	"text/template"

	"gopkg.in/gomail.v2"
	"gopkg.in/yaml.v3"

	"filedepot-idp/internal/core/config"
)

//go:embed templates
var templatesFS embed.FS

// Mailer sends a templated transactional email. Template names map to
// directories under templates/ holding template.html, template.txt and
// params.yml (subject).
type Mailer interface {
	Send(templateName string, address string, variables map[string]string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type messageParams struct {
	Subject string `yaml:"subject"`
}

type templateMailer struct {
	dialer dialer
	config config.SMTP
}

func NewMailer(cfg config.SMTP) Mailer {
	return NewMailerWithDialer(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password))
}

func NewMailerWithDialer(cfg config.SMTP, d dialer) Mailer {
	return &templateMailer{config: cfg, dialer: d}
}

func (mt *templateMailer) Send(templateName string, address string, variables map[string]string) error {
	html, err := mt.render(path.Join("templates", templateName, "template.html"), variables)
	if err != nil {
		return err
	}
	text, err := mt.render(path.Join("templates", templateName, "template.txt"), variables)
	if err != nil {
		return err
	}
	params, err := mt.params(templateName)
	if err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf(`"%s" <%s>`, mt.config.SenderName, mt.config.SenderAddress))
	m.SetHeader("To", address)
	m.SetHeader("Subject", params.Subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)
	if err := mt.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("dial and send mail: %w", err)
	}
	return nil
}

func (mt *templateMailer) render(name string, variables map[string]string) (string, error) {
	f, err := templatesFS.Open(name)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New("").Parse(string(b))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (mt *templateMailer) params(templateName string) (*messageParams, error) {
	b, err := templatesFS.ReadFile(path.Join("templates", templateName, "params.yml"))
	if err != nil {
		return nil, err
	}
	res := &messageParams{}
	if err := yaml.Unmarshal(b, res); err != nil {
		return nil, err
	}
	return res, nil
}
