// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends the confirmation and contact-relay messages via SMTP.
package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/glowbook/waitlist/internal/config"
	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Sender dispatches outgoing mail. Satisfied by *Service; test doubles
// record instead of sending.
type Sender interface {
	SendConfirmation(ctx context.Context, toEmail, name, token string) error
	SendContact(ctx context.Context, fromEmail, name, message string) error
}

// Service sends email via SMTP using go-mail.
type Service struct {
	cfg       *config.SMTPConfig
	baseURL   string
	siteName  string
	contactTo string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL, siteName, contactTo string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:       cfg,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		siteName:  siteName,
		contactTo: contactTo,
	}, nil
}

// SendConfirmation sends the double-opt-in email carrying the confirmation
// link for token.
func (s *Service) SendConfirmation(ctx context.Context, toEmail, name, token string) error {
	confirmURL := fmt.Sprintf("%s/api/confirm?token=%s", s.baseURL, url.QueryEscape(token))

	if name == "" {
		name = "Subscriber"
	}

	subject := i18n.TData(ctx, "email_confirmation_subject", map[string]any{"SiteName": s.siteName})
	greeting := i18n.TData(ctx, "email_confirmation_greeting", map[string]any{"Name": name})
	body := i18n.T(ctx, "email_confirmation_body")
	ignore := i18n.T(ctx, "email_confirmation_ignore")

	text := fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s\n", greeting, body, confirmURL, ignore)
	htmlBody := fmt.Sprintf(
		`<p><strong>%s</strong></p><p>%s</p><p><a href="%s">%s</a></p><p>%s</p>`,
		greeting, body, confirmURL, confirmURL, ignore)

	return s.send(toEmail, subject, text, htmlBody, "")
}

// SendContact relays a contact form submission to the configured inbox.
// Reply-To points at the visitor so the owner can answer directly.
func (s *Service) SendContact(ctx context.Context, fromEmail, name, message string) error {
	subject := i18n.TData(ctx, "email_contact_subject", map[string]any{"Name": name})

	text := fmt.Sprintf("Name: %s\nEmail: %s\nMessage:\n%s\n", name, fromEmail, message)
	htmlBody := fmt.Sprintf(
		`<p><strong>Name:</strong> %s</p><p><strong>Email:</strong> %s</p><p><strong>Message:</strong></p><p>%s</p>`,
		name, fromEmail, message)

	return s.send(s.contactTo, subject, text, htmlBody, fromEmail)
}

func (s *Service) send(to, subject, text, htmlBody, replyTo string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	if replyTo != "" {
		if err := msg.ReplyTo(replyTo); err != nil {
			return fmt.Errorf("setting reply-to address: %w", err)
		}
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Implicit TLS (SSL) for port 465, STARTTLS otherwise.
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
