// Package notify turns user domain events into messages for the user.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmaazkhanhere/learnpath/internal/event"
	pkgkafka "github.com/mmaazkhanhere/learnpath/pkg/kafka"
)

// Message is a rendered notification.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers messages through one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "notification sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Notifier handles user events.
type Notifier struct {
	sender Sender
	logger *slog.Logger
}

// NewNotifier creates a notifier that delivers through sender.
func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// Handle routes an event by type. Unknown types are skipped. A payload
// without a recipient is an error so the consumer can dead-letter it.
func (n *Notifier) Handle(ctx context.Context, e *pkgkafka.Event) error {
	switch e.EventType {
	case event.TypeUserRegistered:
		return n.handleRegistered(ctx, e)
	case event.TypeUserRoleChanged:
		return n.handleRoleChanged(ctx, e)
	default:
		n.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", e.EventType),
			slog.String("event_id", e.EventID),
		)
		return nil
	}
}

func (n *Notifier) handleRegistered(ctx context.Context, e *pkgkafka.Event) error {
	var data event.UserRegisteredData
	if err := e.UnmarshalData(&data); err != nil {
		return err
	}
	if data.Email == "" {
		return fmt.Errorf("event %s: missing email", e.EventID)
	}

	return n.send(ctx, e, Message{
		To:      data.Email,
		Subject: "Welcome to our platform",
		Body:    "Thank you for registering",
	})
}

func (n *Notifier) handleRoleChanged(ctx context.Context, e *pkgkafka.Event) error {
	var data event.UserRoleChangedData
	if err := e.UnmarshalData(&data); err != nil {
		return err
	}
	if data.Email == "" {
		return fmt.Errorf("event %s: missing email", e.EventID)
	}

	return n.send(ctx, e, Message{
		To:      data.Email,
		Subject: "Your role has changed",
		Body:    fmt.Sprintf("Your role is now %s. Sign in again to use it.", data.Role),
	})
}

func (n *Notifier) send(ctx context.Context, e *pkgkafka.Event, msg Message) error {
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send via %s: %w", n.sender.Name(), err)
	}
	n.logger.InfoContext(ctx, "user notified",
		slog.String("event_type", e.EventType),
		slog.String("event_id", e.EventID),
		slog.String("user_id", e.AggregateID),
	)
	return nil
}
