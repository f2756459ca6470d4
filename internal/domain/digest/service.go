package digest

import (
	"context"
	"errors"
	"strings"
	"time"

	"menu-app-go/internal/domain/user"
	"menu-app-go/internal/mail"
	"menu-app-go/pkg/logger"
)

type Recipients interface {
	List(ctx context.Context) ([]user.User, error)
}

// ErrNoAddress marks a delivery to a user without an email address.
var ErrNoAddress = errors.New("user has no email address")

type Delivery struct {
	UserID    int64
	Recipient string
	Message   mail.Message
}

type Report struct {
	Date    time.Time
	Planned int
	Sent    int
	Failed  int
}

type Service struct {
	builder    *Builder
	recipients Recipients
	sender     mail.Sender
	log        logger.Logger
}

func NewService(builder *Builder, recipients Recipients, sender mail.Sender, log logger.Logger) *Service {
	return &Service{
		builder:    builder,
		recipients: recipients,
		sender:     sender,
		log:        log.With("component", "digest"),
	}
}

// Plan renders one delivery per registered user, in user id order. Users
// without an email get a delivery with an empty Recipient.
func (s *Service) Plan(ctx context.Context, today time.Time) ([]Delivery, error) {
	deliveries, _, err := s.plan(ctx, today)
	return deliveries, err
}

func (s *Service) plan(ctx context.Context, today time.Time) ([]Delivery, Digest, error) {
	digest, err := s.builder.Build(ctx, today)
	if err != nil {
		return nil, Digest{}, err
	}

	users, err := s.recipients.List(ctx)
	if err != nil {
		return nil, Digest{}, err
	}

	subject := s.builder.Subject(today)
	deliveries := make([]Delivery, 0, len(users))
	for _, u := range users {
		email := strings.TrimSpace(u.Email)
		deliveries = append(deliveries, Delivery{
			UserID:    u.ID,
			Recipient: email,
			Message:   mail.Message{To: email, Subject: subject, HTML: digest.HTML},
		})
	}
	return deliveries, digest, nil
}

// Send dispatches the digest to every recipient. A failed recipient is logged
// and counted; the rest are still sent.
func (s *Service) Send(ctx context.Context, today time.Time) (Report, error) {
	deliveries, digest, err := s.plan(ctx, today)
	if err != nil {
		return Report{}, err
	}

	report := Report{Date: digest.Date, Planned: len(deliveries)}
	for _, delivery := range deliveries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if delivery.Recipient == "" {
			s.log.BusinessError("digest: could not send email", ErrNoAddress, "user_id", delivery.UserID)
			report.Failed++
			continue
		}
		if err := s.sender.Send(ctx, delivery.Message); err != nil {
			s.log.InternalError("digest: could not send email", err, "user_id", delivery.UserID, "recipient", delivery.Recipient)
			report.Failed++
			continue
		}
		report.Sent++
	}

	s.log.Info("digest: finished",
		"date", digest.Date.Format(subjectLayout),
		"updated", len(digest.Updated),
		"created", len(digest.Created),
		"sent", report.Sent,
		"failed", report.Failed,
	)
	return report, nil
}
