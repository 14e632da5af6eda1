package mailer

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"time"

	"github.com/go-mail/mail"
	"github.com/kubryk/vegetables-shop/internal/data"
)

//go:embed templates/*
var templatesFS embed.FS

// OrderConfirmationTemplate is sent to the customer after checkout.
const OrderConfirmationTemplate = "order_confirmation.tmpl"

// ErrNoRecipient is returned when a message has nobody to go to.
var ErrNoRecipient = errors.New("mailer: no recipient")

// Mailer represents a mailer service.
type Mailer struct {
	dialer  *mail.Dialer
	sender  string
	retries int
}

// message is a rendered template.
type message struct {
	subject   string
	plainBody string
	htmlBody  string
}

// New creates a new Mailer instance.
func New(host string, port int, username, password, sender string) *Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second
	return &Mailer{
		dialer:  dialer,
		sender:  sender,
		retries: 3,
	}
}

// Send renders the named template with data and delivers it.
func (m *Mailer) Send(to, templateName string, data any) error {
	if to == "" {
		return ErrNoRecipient
	}

	rendered, err := render(templateName, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", rendered.subject)
	msg.SetBody("text/plain", rendered.plainBody)
	msg.AddAlternative("text/html", rendered.htmlBody)

	for i := 0; i < m.retries; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}

	return err
}

// SendOrderConfirmation tells the customer their order was received.
func (m *Mailer) SendOrderConfirmation(order *data.Order) error {
	return m.Send(order.CustomerEmail, OrderConfirmationTemplate, order)
}

func render(templateName string, data any) (*message, error) {
	tmpl, err := template.New(templateName).Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format("02.01.2006 15:04") },
	}).ParseFS(templatesFS, "templates/"+templateName)
	if err != nil {
		return nil, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return nil, err
	}

	plainBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return nil, err
	}

	htmlBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
		return nil, err
	}

	return &message{
		subject:   subject.String(),
		plainBody: plainBody.String(),
		htmlBody:  htmlBody.String(),
	}, nil
}
