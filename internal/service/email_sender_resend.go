package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendEmailSender sends the transactional emails through the Resend API.
// Subjects and bodies mirror the templates the frontend links against.
type ResendEmailSender struct {
	Client     *resend.Client
	From       string
	AppBaseURL string
	ResetPath  string
}

func NewResendEmailSender(apiKey string, from string, appBaseURL string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		Client:     resend.NewClient(apiKey),
		From:       from,
		AppBaseURL: strings.TrimRight(appBaseURL, "/"),
		ResetPath:  "/reset-password",
	}
}

func (s *ResendEmailSender) SendVerificationEmail(ctx context.Context, email, firstName, code string, expiresIn time.Duration) error {
	subject := "Verify your email"
	text := fmt.Sprintf(
		"Hi %s,\n\nThanks for registering.\n\nYour verification code is: %s\n\nThis code expires in %d minutes. If you did not register, please ignore this email.",
		firstName, code, int(expiresIn.Minutes()),
	)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your verification code is:</p><h2>%s</h2><p>This code expires in %d minutes.</p>",
		firstName, code, int(expiresIn.Minutes()))
	return s.send(ctx, email, subject, html, text)
}

func (s *ResendEmailSender) SendPasswordResetEmail(ctx context.Context, email, firstName, token string, expiresIn time.Duration) error {
	link := s.buildResetLink(token)
	subject := "Reset your password"
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your password.\n\nReset it here: %s\n\nThis link expires in %d hours. If you did not request a reset, please ignore this email.",
		firstName, link, int(expiresIn.Hours()),
	)
	html := fmt.Sprintf("<p>Hi %s,</p><p><a href=\"%s\">Reset your password</a></p><p>This link expires in %d hours.</p>",
		firstName, link, int(expiresIn.Hours()))
	return s.send(ctx, email, subject, html, text)
}

func (s *ResendEmailSender) SendWelcomeEmail(ctx context.Context, email, firstName string) error {
	subject := "Welcome!"
	text := fmt.Sprintf(
		"Hi %s,\n\nYour account has been verified. You can now browse listings, publish your own properties and contact owners directly.\n\nLog in at %s/login to get started.",
		firstName, s.AppBaseURL,
	)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your account has been verified.</p><p><a href=\"%s/login\">Log in</a> to get started.</p>",
		firstName, s.AppBaseURL)
	return s.send(ctx, email, subject, html, text)
}

// SendEmailChangeCode goes to the proposed new address: possession of the
// new mailbox is what the code proves.
func (s *ResendEmailSender) SendEmailChangeCode(ctx context.Context, newEmail, firstName, oldEmail, code string, expiresIn time.Duration) error {
	subject := "Verify your new email"
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to change your email from %s to %s.\n\nYour verification code is: %s\n\nThis code expires in %d minutes. If you did not request this change, contact support immediately.",
		firstName, oldEmail, newEmail, code, int(expiresIn.Minutes()),
	)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your verification code is:</p><h2>%s</h2><p>This code expires in %d minutes.</p>",
		firstName, code, int(expiresIn.Minutes()))
	return s.send(ctx, newEmail, subject, html, text)
}

// SendEmailChangedNotice goes to the old address as a security notice once
// the change is complete.
func (s *ResendEmailSender) SendEmailChangedNotice(ctx context.Context, oldEmail, firstName, newEmail string) error {
	subject := "Your email has been changed"
	text := fmt.Sprintf(
		"Hi %s,\n\nThe email on your account was changed from %s to %s. This is the last message you will receive at this address.\n\nIf you did NOT authorize this change, contact support immediately.",
		firstName, oldEmail, newEmail,
	)
	html := fmt.Sprintf("<p>Hi %s,</p><p>The email on your account was changed from %s to %s.</p><p>If you did not authorize this change, contact support immediately.</p>",
		firstName, oldEmail, newEmail)
	return s.send(ctx, oldEmail, subject, html, text)
}

func (s *ResendEmailSender) buildResetLink(token string) string {
	if s.AppBaseURL == "" {
		return token
	}
	return fmt.Sprintf("%s%s?token=%s", s.AppBaseURL, s.ResetPath, token)
}

func (s *ResendEmailSender) send(ctx context.Context, to string, subject string, html string, text string) error {
	if s.Client == nil {
		return errors.New("email sender not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.Client.Emails.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	return err
}
