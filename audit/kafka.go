package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig configures the Kafka-backed audit sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaSink publishes audit entries to a Kafka topic.
type KafkaSink struct {
	logger *zap.Logger
	writer messageWriter
}

// NewKafkaSink constructs a KafkaSink using the supplied configuration.
func NewKafkaSink(logger *zap.Logger, cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker must be provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic must be provided")
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		AllowAutoTopicCreation: true,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
	}

	return newKafkaSink(logger, writer), nil
}

func newKafkaSink(logger *zap.Logger, writer messageWriter) *KafkaSink {
	return &KafkaSink{logger: logger, writer: writer}
}

// Record serializes and publishes the entry. Publish failures are logged,
// never surfaced; a broker outage must not alter an execution result.
func (s *KafkaSink) Record(ctx context.Context, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("failed to marshal audit entry", zap.Error(err))
		return
	}

	msg := kafkago.Message{
		Key:   []byte(entry.Language),
		Value: payload,
		Time:  time.Now(),
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Error("failed to publish audit entry",
			zap.String("language", entry.Language),
			zap.Error(err))
	}
}

// Close releases the underlying Kafka writer.
func (s *KafkaSink) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
