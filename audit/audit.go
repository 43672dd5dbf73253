package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edukit/execbox/config"
)

// MaxErrorLen caps the error text carried in an audit entry.
const MaxErrorLen = 512

// Entry is one audited execution.
type Entry struct {
	Language   string    `json:"language"`
	Status     string    `json:"status"`
	Success    bool      `json:"success"`
	ExitCode   int       `json:"exit_code"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Sink receives one entry per completed request.
type Sink interface {
	Record(ctx context.Context, entry Entry)
	Close() error
}

// NewSink creates the configured audit sink.
func NewSink(logger *zap.Logger, cfg *config.Config) (Sink, error) {
	switch cfg.Audit.Backend {
	case "log":
		return NewZapSink(logger), nil
	case "kafka":
		return NewKafkaSink(logger, KafkaConfig{
			Brokers: cfg.Audit.Brokers,
			Topic:   cfg.Audit.Topic,
		})
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
}

// ZapSink writes audit entries as structured log lines.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a log-backed sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Record logs the entry.
func (s *ZapSink) Record(_ context.Context, entry Entry) {
	s.logger.Info("execution completed",
		zap.String("language", entry.Language),
		zap.String("status", entry.Status),
		zap.Bool("success", entry.Success),
		zap.Int("exit_code", entry.ExitCode),
		zap.Int64("duration_ms", entry.DurationMs),
		zap.String("error", entry.Error),
	)
}

// Close implements Sink.
func (s *ZapSink) Close() error {
	return nil
}

// Truncate caps s at n bytes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
