package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	pkgkafka "github.com/mmaazkhanhere/learnpath/pkg/kafka"
	"github.com/mmaazkhanhere/learnpath/pkg/logger"
)

// Kafka topics for user domain events.
var (
	TopicUserRegistered  = pkgkafka.Topic("user", "registered")
	TopicUserRoleChanged = pkgkafka.Topic("user", "role_changed")
)

// Event types carried in the envelope.
const (
	TypeUserRegistered  = "user.registered"
	TypeUserRoleChanged = "user.role_changed"
)

// AggregateTypeUser is the aggregate type of every user event.
const AggregateTypeUser = "user"

// Source identifies events produced by this service.
const Source = "learnpath"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserRoleChangedData is the payload for a user.role_changed event.
type UserRoleChangedData struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PreviousRole string `json:"previous_role"`
	Role         string `json:"role"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Discard is a Publisher that drops every event. It stands in when event
// publishing is disabled.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// Producer publishes user domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role.String(),
	}
	return p.publish(ctx, TopicUserRegistered, TypeUserRegistered, user, data)
}

// PublishUserRoleChanged publishes a user.role_changed event.
func (p *Producer) PublishUserRoleChanged(ctx context.Context, user *domain.User, previous domain.Role) error {
	data := UserRoleChangedData{
		ID:           user.ID,
		Email:        user.Email,
		PreviousRole: previous.String(),
		Role:         user.Role.String(),
	}
	return p.publish(ctx, TopicUserRoleChanged, TypeUserRoleChanged, user, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, user *domain.User, data any) error {
	event, err := pkgkafka.NewEvent(eventType, user.IDString(), AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("event_id", event.EventID),
		slog.Int64("user_id", user.ID),
	)
	return nil
}
