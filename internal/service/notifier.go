package service

import (
	"context"
	"log/slog"
	"time"
)

type OTPNotification struct {
	Email     string
	Username  string
	Code      string
	ExpiresAt time.Time
}

type Notice struct {
	UserID  uint
	Email   string
	Subject string
	Body    string
}

// Notifier delivers out-of-band messages. Implementations must be safe for
// concurrent use; admin fan-out calls SendNotice from several goroutines.
type Notifier interface {
	SendOTP(ctx context.Context, n OTPNotification) error
	SendNotice(ctx context.Context, n Notice) error
}

// LogNotifier writes deliveries to the structured log. It stands in for a
// mail relay in local environments.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendOTP(ctx context.Context, otp OTPNotification) error {
	n.logger.InfoContext(ctx, "password reset code issued",
		"email", otp.Email,
		"username", otp.Username,
		"code", otp.Code,
		"expires_at", otp.ExpiresAt,
	)
	return nil
}

func (n *LogNotifier) SendNotice(ctx context.Context, notice Notice) error {
	n.logger.InfoContext(ctx, "notice delivered",
		"user_id", notice.UserID,
		"email", notice.Email,
		"subject", notice.Subject,
	)
	return nil
}
