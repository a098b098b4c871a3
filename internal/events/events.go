// Package events publishes order lifecycle events to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const TypeOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderPlaced is emitted once an order has been committed.
type OrderPlaced struct {
	Type       string            `json:"type"`
	OrderID    int               `json:"order_id"`
	CustomerID int               `json:"customer_id"`
	Email      string            `json:"email"`
	Total      decimal.Decimal   `json:"total"`
	Items      []OrderPlacedItem `json:"items"`
	PlacedAt   time.Time         `json:"placed_at"`
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error
	Close() error
}

// KafkaPublisher writes events to a single topic through a sarama
// SyncProducer, keyed by order id so events of one order stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

// NewSaramaConfig returns the producer settings used for order events.
func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second
	return cfg
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to start sarama producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, log), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

type sendResult struct {
	partition int32
	offset    int64
	err       error
}

// PublishOrderPlaced sends evt and waits for the broker ack or for ctx to
// end, whichever comes first. A send abandoned on ctx may still land.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error {
	if evt.Type == "" {
		evt.Type = TypeOrderPlaced
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.Itoa(evt.OrderID)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(evt.Type)},
		},
	}

	done := make(chan sendResult, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		done <- sendResult{partition: partition, offset: offset, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send order event to %s: %w", p.topic, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("send order event to %s: %w", p.topic, res.err)
		}
		p.log.Debug("order event published",
			zap.String("topic", p.topic),
			zap.Int("order_id", evt.OrderID),
			zap.Int32("partition", res.partition),
			zap.Int64("offset", res.offset))
		return nil
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (NopPublisher) Close() error { return nil }
