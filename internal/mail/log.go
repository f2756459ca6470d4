package mail

import (
	"context"

	"menu-app-go/pkg/logger"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: log.With("component", "mail")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	s.log.Info("mail: message", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}
