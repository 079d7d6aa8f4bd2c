package auth

import (
	"context"
	"net/url"
	"strings"
)

// Subjects for the outbound account emails.
const (
	SubjectConfirmAccount = "Confirm your account"
	SubjectResetPassword  = "Reset your password"
)

// ConfirmationLink builds the absolute URL a new user follows to activate
// their account.
func ConfirmationLink(baseURL, token string) string {
	return buildLink(baseURL, "/confirm", token)
}

// PasswordResetLink builds the absolute URL a user follows to choose a new
// password.
func PasswordResetLink(baseURL, token string) string {
	return buildLink(baseURL, "/auth/reset-password", token)
}

func buildLink(baseURL, path, token string) string {
	base := strings.TrimSuffix(baseURL, "/")
	return base + path + "?token=" + url.QueryEscape(token)
}

// LogNotifier writes outbound notifications to the logger instead of
// delivering them. It is the default sink for development and tests; wire a
// real mailer in production.
type LogNotifier struct {
	logger Logger
}

func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, link string) error {
	n.logger.Info("notification to=%s subject=%q link=%s", to, subject, link)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
