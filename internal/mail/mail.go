// Package mail delivers HTML messages through SES, SMTP or the log.
package mail

import (
	"context"
	"errors"
	"fmt"

	"menu-app-go/internal/config"
	"menu-app-go/pkg/logger"
)

var ErrNoRecipient = errors.New("mail: recipient is required")

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the transport named by MAIL_TRANSPORT.
func New(ctx context.Context, cfg config.MailConfig, log logger.Logger) (Sender, error) {
	switch cfg.Transport {
	case "ses":
		return NewSES(ctx, cfg.AWSRegion, cfg.From)
	case "smtp":
		return NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From), nil
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unsupported MAIL_TRANSPORT %q", cfg.Transport)
	}
}
