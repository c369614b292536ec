package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/google/uuid"
	"github.com/tutorlane/service-scheduling/internal/domain/schedule"
	"github.com/tutorlane/service-scheduling/internal/pkg/kafka"
	"go.uber.org/zap"
)

// BusySyncer replaces a provider's stored busy blocks for one sync source.
// Implemented by the schedule application service.
type BusySyncer interface {
	SyncBusyBlocks(ctx context.Context, providerID uuid.UUID, source string, blocks []schedule.ExternalBusyBlock) error
}

// CalendarEventConsumer listens to calendar sync events and keeps the
// provider's external busy blocks up to date.
type CalendarEventConsumer struct {
	consumer *kafka.Consumer
	syncer   BusySyncer
	logger   *zap.Logger
}

// NewCalendarEventConsumer creates a new CalendarEventConsumer.
func NewCalendarEventConsumer(
	brokers []string,
	groupID string,
	syncer BusySyncer,
	logger *zap.Logger,
) *CalendarEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicCalendarEvents, logger)
	return &CalendarEventConsumer{
		consumer: consumer,
		syncer:   syncer,
		logger:   logger,
	}
}

// Start begins consuming calendar events. This blocks until the context is
// cancelled.
func (c *CalendarEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CalendarEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CalendarEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from calendar topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case CalendarBusySynced:
		return c.handleBusySynced(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled calendar event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *CalendarEventConsumer) handleBusySynced(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt CalendarBusySyncedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse CalendarBusySyncedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	blocks := make([]schedule.ExternalBusyBlock, 0, len(evt.Blocks))
	for _, b := range evt.Blocks {
		blocks = append(blocks, schedule.ExternalBusyBlock{
			ID:         uuid.New(),
			ProviderID: evt.ProviderID,
			Start:      b.Start,
			End:        b.End,
			Source:     evt.Source,
		})
	}

	c.logger.Info("processing calendar busy sync",
		zap.String("provider_id", evt.ProviderID.String()),
		zap.String("source", evt.Source),
		zap.Int("blocks", len(blocks)),
	)

	if err := c.syncer.SyncBusyBlocks(ctx, evt.ProviderID, evt.Source, blocks); err != nil {
		c.logger.Error("failed to sync busy blocks",
			zap.String("provider_id", evt.ProviderID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
