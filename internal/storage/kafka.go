package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"drtManager/internal/model"
)

const DefaultReceiptTopic = "drt_receipts"

// KafkaJournal publishes receipts to a Kafka topic keyed by pool address.
type KafkaJournal struct {
	w       *kafka.Writer
	timeout time.Duration
}

func NewKafkaJournal(brokers []string, topic string) (*KafkaJournal, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		topic = DefaultReceiptTopic
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &KafkaJournal{w: w, timeout: 10 * time.Second}, nil
}

func (k *KafkaJournal) PutReceiptBatch(receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(receipts))
	for _, receipt := range receipts {
		body, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshal receipt: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(receipt.Pool.String()),
			Value: body,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write kafka messages: %w", err)
	}
	return nil
}

func (k *KafkaJournal) Close() error {
	return k.w.Close()
}
