package infrastructure

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"crmdash/internal/forecasts/domain"
	"crmdash/internal/logger"
)

// Publisher diffuse les événements de modification des prévisions
type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
	Close() error
}

// NoopPublisher est utilisé quand aucun broker n'est configuré
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.ChangeEvent) error { return nil }
func (NoopPublisher) Close() error                                      { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher écrit un message JSON par événement, clé = COF_ID
// (toutes les modifications d'une prévision restent ordonnées sur la même partition)
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher crée un publisher sur topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.CofID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
			{Key: logger.RequestIDHeader, Value: []byte(logger.RequestID(ctx))},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
