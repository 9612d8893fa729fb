package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	OrderForwardedTopic = "order.forwarded"
)

// OrderForwardedEvent is published once per order accepted by Everstox.
type OrderForwardedEvent struct {
	RunID          uuid.UUID `json:"run_id"`
	ShopifyOrderID string    `json:"shopify_order_id"`
	OrderNumber    string    `json:"order_number"`
	ShopInstanceID uuid.UUID `json:"shop_instance_id"`
	ItemCount      int       `json:"item_count"`
	EventTime      time.Time `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
	logger   *logrus.Logger
}

// NewKafkaProducer connects to a comma separated broker list.
func NewKafkaProducer(brokers, topic string, logger *logrus.Logger) (*KafkaProducer, error) {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(addrs, config)
	if err != nil {
		return nil, err
	}

	return NewProducer(producer, topic, logger), nil
}

// NewProducer wraps an existing sarama producer.
func NewProducer(producer sarama.SyncProducer, topic string, logger *logrus.Logger) *KafkaProducer {
	if topic == "" {
		topic = OrderForwardedTopic
	}
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		now:      time.Now,
		logger:   logger,
	}
}

func (p *KafkaProducer) PublishOrderForwarded(ctx context.Context, event OrderForwardedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event.EventTime = p.now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ShopifyOrderID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":        p.topic,
		"partition":    partition,
		"offset":       offset,
		"order_number": event.OrderNumber,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
