package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher forwards persisted notifications to an external stream.
type Publisher interface {
	Publish(ctx context.Context, n *Notification) error
	Close() error
}

// Event is the JSON payload written to the notification topic.
type Event struct {
	NotificationID int       `json:"notificationId"`
	UserID         string    `json:"userId"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Type           Type      `json:"type"`
	RelatedID      int       `json:"relatedId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// KafkaPublisher writes one message per notification, keyed by recipient so
// a user's notifications stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, n *Notification) error {
	msg, err := encodeMessage(n)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification %d: %w", n.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encodeMessage(n *Notification) (kafka.Message, error) {
	payload, err := json.Marshal(Event{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           n.Type,
		RelatedID:      n.RelatedID,
		CreatedAt:      n.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode notification event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(n.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
			{Key: "related_id", Value: []byte(strconv.Itoa(n.RelatedID))},
		},
	}, nil
}
