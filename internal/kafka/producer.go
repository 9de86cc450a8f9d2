package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/playlog/internal/domain"
)

// Producer publishes play submissions keyed by game
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewProducer connects a sync producer to brokers
func NewProducer(brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return newProducer(producer, topic, logger), nil
}

func newProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *Producer {
	return &Producer{producer: producer, topic: topic, logger: logger}
}

// Publish sends plays in order and returns how many were acknowledged
func (p *Producer) Publish(ctx context.Context, plays []domain.NewPlay) (int, error) {
	sent := 0
	for _, play := range plays {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		data, err := json.Marshal(play)
		if err != nil {
			return sent, fmt.Errorf("encoding play %q: %w", play.Game, err)
		}

		partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(play.Game),
			Value: sarama.ByteEncoder(data),
		})
		if err != nil {
			return sent, fmt.Errorf("sending play %q: %w", play.Game, err)
		}
		sent++

		p.logger.Debug("play published",
			"game", play.Game,
			"partition", partition,
			"offset", offset,
		)
	}
	return sent, nil
}

// Close flushes and closes the underlying producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
