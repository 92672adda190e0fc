package utils

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/yuin/goldmark"
)

// Mailer delivers a message whose body is written in Markdown.
type Mailer interface {
	Send(ctx context.Context, to, subject, markdown string) error
}

// RenderMarkdown converts a Markdown body to HTML.
func RenderMarkdown(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}

type SESMailer struct {
	client *ses.Client
	from   string
}

func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SES: %w", err)
	}
	return &SESMailer{client: ses.NewFromConfig(cfg), from: from}, nil
}

func (m *SESMailer) Send(ctx context.Context, to, subject, markdown string) error {
	html, err := RenderMarkdown(markdown)
	if err != nil {
		return err
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(markdown), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(m.from),
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

type SMTPMailer struct {
	host, port string
	user, pass string
	from       string
}

func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, markdown string) error {
	html, err := RenderMarkdown(markdown)
	if err != nil {
		return err
	}
	msg := "From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		html

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer only logs outgoing mail. Used in development.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, markdown string) error {
	m.Logger.Info("email (not sent)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(markdown)),
	)
	return nil
}
