package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository"
	"github.com/nobat/booking-api/pkg/logger"
	"github.com/nobat/booking-api/pkg/messaging"
	"github.com/nobat/booking-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// CleanupAfter drops processed rows older than this. Zero disables cleanup.
	CleanupAfter time.Duration
}

// OutboxProcessor relays committed booking events to the message broker.
// Events are picked up with row locks so concurrent workers never deliver
// the same event twice.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor")

	var cleanup <-chan time.Time
	if p.config.CleanupAfter > 0 {
		cleanupTicker := time.NewTicker(time.Hour)
		defer cleanupTicker.Stop()
		cleanup = cleanupTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process events")
			}
		case <-cleanup:
			if n, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.CleanupAfter)); err != nil {
				p.logger.Error(err, "failed to clean up processed events")
			} else if n > 0 {
				p.logger.Info("cleaned up processed events", "deleted", n)
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	fetchTimer := prometheus.NewTimer(p.metrics.DatabaseLatency.WithLabelValues("get_pending_events"))
	events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
	fetchTimer.ObserveDuration()
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := publishWithRetry(ctx, p.broker, channelFor(event.EventType), event.Payload, p.config.RetryAttempts, p.config.RetryDelay)
	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()

		var retryAt *time.Time
		if event.RetryCount+1 < p.config.RetryAttempts {
			// Linear backoff between poll-loop retries.
			at := time.Now().Add(p.config.RetryDelay * time.Duration(event.RetryCount+1))
			retryAt = &at
		}
		if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error(), retryAt); markErr != nil {
			p.logger.Error(markErr, "failed to mark event failed", "event_id", event.ID.String())
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// channelFor maps a stored event type to its broker channel.
func channelFor(eventType string) string {
	switch eventType {
	case model.EventAppointmentBooked:
		return messaging.ChannelAppointmentBooked
	case model.EventAppointmentTransition:
		return messaging.ChannelAppointmentStatus
	}
	return eventType
}

func publishWithRetry(ctx context.Context, broker messaging.Broker, channel string, payload []byte, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = broker.Publish(ctx, channel, payload); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
