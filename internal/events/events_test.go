package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_PublishOrderPlaced(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewSaramaConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var evt OrderPlaced
		if err := json.Unmarshal(val, &evt); err != nil {
			return err
		}
		if evt.Type != TypeOrderPlaced || evt.OrderID != 42 {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "orders.placed", nil)
	err := pub.PublishOrderPlaced(context.Background(), OrderPlaced{
		OrderID:    42,
		CustomerID: 7,
		Email:      "ann@example.com",
		Total:      decimal.RequireFromString("300.00"),
		Items:      []OrderPlacedItem{{ProductID: 2, Quantity: 3, Subtotal: decimal.RequireFromString("300.00")}},
		PlacedAt:   time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewSaramaConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherWithProducer(producer, "orders.placed", nil)
	err := pub.PublishOrderPlaced(context.Background(), OrderPlaced{OrderID: 1})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, pub.Close())
}

// stalledProducer never acks until released.
type stalledProducer struct {
	sarama.SyncProducer
	release chan struct{}
}

func (p *stalledProducer) SendMessage(*sarama.ProducerMessage) (int32, int64, error) {
	<-p.release
	return 0, 0, nil
}

func TestKafkaPublisher_GivesUpOnContext(t *testing.T) {
	producer := &stalledProducer{release: make(chan struct{})}
	defer close(producer.release)

	pub := NewKafkaPublisherWithProducer(producer, "orders.placed", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := pub.PublishOrderPlaced(ctx, OrderPlaced{OrderID: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), OrderPlaced{}))
	assert.NoError(t, p.Close())
}
