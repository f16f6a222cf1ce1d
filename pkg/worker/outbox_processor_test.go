package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository/repositorytest"
	"github.com/nobat/booking-api/pkg/logger"
	"github.com/nobat/booking-api/pkg/metrics"
)

// Registered once; promauto metrics cannot be registered twice in one binary.
var testMetrics = metrics.NewMetrics("bookingtest", "worker")

type stubBroker struct {
	channels []string
	err      error
}

func (b *stubBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.channels = append(b.channels, channel)
	return nil
}

func (b *stubBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBroker) Close() error { return nil }

func newProcessor(repo *repositorytest.OutboxRepo, broker *stubBroker, retryAttempts int) *OutboxProcessor {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: retryAttempts,
		RetryDelay:    time.Millisecond,
	}, log, testMetrics)
}

func pendingEvent(t *testing.T, repo *repositorytest.OutboxRepo, eventType string) *model.OutboxEvent {
	t.Helper()
	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   json.RawMessage(`{"queue_number":1}`),
		Status:    model.OutboxStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	broker := &stubBroker{}
	booked := pendingEvent(t, repo, model.EventAppointmentBooked)
	transition := pendingEvent(t, repo, model.EventAppointmentTransition)

	p := newProcessor(repo, broker, 1)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, []string{"appointments.booked", "appointments.status"}, broker.channels)
	assert.Equal(t, model.OutboxStatusProcessed, booked.Status)
	assert.Equal(t, model.OutboxStatusProcessed, transition.Status)
}

func TestProcessEventsSchedulesRetryOnPublishFailure(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	broker := &stubBroker{err: errors.New("redis down")}
	event := pendingEvent(t, repo, model.EventAppointmentBooked)

	p := newProcessor(repo, broker, 3)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, model.OutboxStatusPending, event.Status, "stays pending until attempts run out")
	require.NotNil(t, event.RetryAt)
	assert.Equal(t, 1, event.RetryCount)
	require.NotNil(t, event.ErrorMessage)
	assert.Contains(t, *event.ErrorMessage, "redis down")
}

func TestProcessEventsFailsAfterLastAttempt(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	broker := &stubBroker{err: errors.New("redis down")}
	event := pendingEvent(t, repo, model.EventAppointmentBooked)
	event.RetryCount = 2

	p := newProcessor(repo, broker, 3)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	assert.Nil(t, event.RetryAt)
}

func TestChannelForUnknownTypePassesThrough(t *testing.T) {
	assert.Equal(t, "appointments.booked", channelFor(model.EventAppointmentBooked))
	assert.Equal(t, "custom.event", channelFor("custom.event"))
}
