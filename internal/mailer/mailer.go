// Package mailer delivers the verification and password-reset messages.
//
// Mailer renders messages and hands them to a Sender. Senders are stacked:
// Dispatcher queues in front of SMTPSender (or LogSender in development)
// so request handlers never wait on SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Notifier is the outbound notification capability used by the auth service.
type Notifier interface {
	SendVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const (
	verifyPath = "/auth/verify"
	resetPath  = "/auth/reset-password-request"
)

var (
	verifyTmpl = template.Must(template.New("verify").Parse(
		`<p>Hello,</p>` +
			`<p>Thanks for signing up. Please confirm your email address ({{.Email}}) by opening the link below.</p>` +
			`<p><a href="{{.Link}}">{{.Link}}</a></p>`))

	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>Hello,</p>` +
			`<p>We received a request to reset the password for {{.Email}}. The link below is valid for one hour.</p>` +
			`<p><a href="{{.Link}}">{{.Link}}</a></p>` +
			`<p>If you did not ask for this, you can ignore this message.</p>`))
)

type templateData struct {
	Email string
	Link  string
}

// Mailer implements Notifier.
type Mailer struct {
	sender  Sender
	baseURL string
}

// New builds a Mailer whose links start with baseURL, e.g.
// https://api.example.com/api.
func New(sender Sender, baseURL string) *Mailer {
	return &Mailer{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *Mailer) SendVerification(ctx context.Context, email, token string) error {
	link := m.link(verifyPath, token)
	return m.send(ctx, verifyTmpl, email, "Verify your email address", link,
		"Confirm your email address by opening this link: "+link)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string) error {
	link := m.link(resetPath, token)
	return m.send(ctx, resetTmpl, email, "Reset your password", link,
		"Reset your password by opening this link within one hour: "+link)
}

func (m *Mailer) link(path, token string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (m *Mailer) send(ctx context.Context, tmpl *template.Template, email, subject, link, text string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, templateData{Email: email, Link: link}); err != nil {
		return fmt.Errorf("rendering %s: %w", tmpl.Name(), err)
	}

	return m.sender.Send(ctx, Message{
		To:      email,
		Subject: subject,
		HTML:    body.String(),
		Text:    text,
	})
}
