package service

import (
	"context"
	"log"
)

// ResetNotifier hands a freshly issued reset token to whatever delivers it.
// Delivery itself (email, SMS) lives outside this service.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogNotifier writes the token to the process log. Stand-in until a real
// mailer is plugged in.
type LogNotifier struct{}

func (LogNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	log.Printf("password reset token for %s: %s", email, token)
	return nil
}
