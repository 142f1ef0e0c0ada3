package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chapool/subflow-agent/internal/config"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const EventTypeTransactionSigned = "transaction.signed"

// Event records one signed (or replayed) transaction for downstream consumers,
// e.g. the workflow that broadcasts it.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	OccurredAt     time.Time `json:"occurredAt"`
	SubscriptionID string    `json:"subscriptionId"`
	ChainID        int64     `json:"chainId"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Nonce          uint64    `json:"nonce"`
	TxHash         string    `json:"txHash"`
	Replayed       bool      `json:"replayed"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured and a no-op publisher otherwise.
//
//nolint:ireturn
func New(cfg config.Kafka) Publisher {
	if !cfg.Enabled() {
		return NoopPublisher{}
	}

	return NewKafkaPublisher(cfg)
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.Kafka) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: cfg.WriteTimeout,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish keys messages by signer address so events of one account stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal audit event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.From),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to write audit event to kafka")
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
