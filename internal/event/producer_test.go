package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	pkgkafka "github.com/mmaazkhanhere/learnpath/pkg/kafka"
	"github.com/mmaazkhanhere/learnpath/pkg/logger"
)

type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
	return nil
}

var _ Publisher = (*pkgkafka.Producer)(nil)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "learnpath.user.registered", TopicUserRegistered)
	assert.Equal(t, "learnpath.user.role_changed", TopicUserRoleChanged)
}

func TestProducer_PublishUserRegistered(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, quietLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	user := &domain.User{ID: 7, Name: "Ada", Email: "ada@example.com", Role: domain.RoleLearner}
	require.NoError(t, p.PublishUserRegistered(ctx, user))

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicUserRegistered, pub.topics[0])

	ev := pub.events[0]
	assert.Equal(t, TypeUserRegistered, ev.EventType)
	assert.Equal(t, "7", ev.AggregateID)
	assert.Equal(t, AggregateTypeUser, ev.AggregateType)
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.NotEmpty(t, ev.EventID)

	var data UserRegisteredData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, UserRegisteredData{ID: 7, Name: "Ada", Email: "ada@example.com", Role: "learner"}, data)
}

func TestProducer_PublishUserRoleChanged(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, quietLogger())

	user := &domain.User{ID: 3, Email: "x@example.com", Role: domain.RoleAdmin}
	require.NoError(t, p.PublishUserRoleChanged(context.Background(), user, domain.RoleContributor))

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicUserRoleChanged, pub.topics[0])
	assert.Empty(t, pub.events[0].CorrelationID)

	var data UserRoleChangedData
	require.NoError(t, pub.events[0].UnmarshalData(&data))
	assert.Equal(t, "contributor", data.PreviousRole)
	assert.Equal(t, "admin", data.Role)
}

func TestProducer_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	p := NewProducer(pub, quietLogger())

	err := p.PublishUserRegistered(context.Background(), &domain.User{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish user.registered event")
	assert.ErrorIs(t, err, pub.err)
}

func TestDiscard(t *testing.T) {
	p := NewProducer(Discard, quietLogger())
	assert.NoError(t, p.PublishUserRegistered(context.Background(), &domain.User{ID: 1}))
}
