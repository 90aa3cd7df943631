// Package publisher streams audit events to Kafka. The stream is the
// long-retention record; the postgres table is the queryable view.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "bronn/pkg/platform/audit"
)

// Kafka implements audit.Sink on franz-go.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// payload is the wire shape. Field names are part of the consumer contract.
type payload struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// NewKafka connects to the brokers and ensures the topic exists. Ensuring at
// startup keeps the worker's produce path free of admin calls.
func NewKafka(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		// Already-exists is the steady state after first boot.
		logger.DebugContext(ctx, "audit topic create skipped", "topic", topic, "reason", err)
	}

	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// Append produces one event synchronously. The audit worker is the only
// caller, off the request path, so the sync produce keeps ordering per user
// without hurting request latency.
func (k *Kafka) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(payload{
		Action:    string(event.Action),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		UserID:    event.UserID,
		Email:     event.Email,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ClientIP:  event.ClientIP,
		UserAgent: event.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.UserID),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}
