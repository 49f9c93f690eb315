package email

import (
	"context"
	"errors"
	"time"
)

// Sender define la interfaz para envío de correos transaccionales.
type Sender interface {
	SendVerificationCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
	SendPasswordResetLink(ctx context.Context, toEmail string, resetURL string) error
	SendPasswordChangedNotice(ctx context.Context, toEmail string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendVerificationCode(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) SendPasswordResetLink(_ context.Context, _ string, _ string) error {
	return s.err()
}

func (s *disabledSender) SendPasswordChangedNotice(_ context.Context, _ string) error {
	return s.err()
}
