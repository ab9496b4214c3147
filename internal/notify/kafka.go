package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	apperrors "github.com/ticketdesk/ticket-core/pkg/util"

	"github.com/ticketdesk/ticket-core/internal/events"
)

// kafkaSink streams events to a Kafka topic, keyed by ticket id so all
// events for one ticket land in the same partition.
type kafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink builds the Kafka sink. Returns nil when no brokers are
// configured.
func NewKafkaSink(brokers []string, topic string) Sink {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &kafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (s *kafkaSink) Name() string { return "kafka" }

func (s *kafkaSink) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.TicketID),
		Value: data,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return apperrors.NewDependencyError("kafka sink", err)
	}
	return nil
}

// Close releases the underlying writer.
func (s *kafkaSink) Close() error {
	return s.writer.Close()
}
