package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/metrics"
)

// PlayCreator records plays
type PlayCreator interface {
	Create(ctx context.Context, in domain.NewPlay) (string, error)
}

type outcome int

const (
	outcomeRecorded outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Consumer consumes play submissions from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	creator       PlayCreator
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
	rejoinBackoff time.Duration
}

const defaultRejoinBackoff = 5 * time.Second

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, creator PlayCreator, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	return newConsumer(cfg, creator, consumerGroup, logger), nil
}

func newConsumer(cfg *config.KafkaConfig, creator PlayCreator, group sarama.ConsumerGroup, logger *slog.Logger) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		config:        cfg,
		creator:       creator,
		logger:        logger,
		consumerGroup: group,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
		rejoinBackoff: defaultRejoinBackoff,
	}
}

// Start begins consuming messages and returns once the first session is set up
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	firstReady := c.ready
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ready := firstReady
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    ready,
			}

			err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler)
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			if err != nil {
				c.logger.Error("error from consumer", "error", err)
			}

			if c.ctx.Err() != nil {
				return
			}

			if err != nil || handler.storeFailed.Load() {
				c.logger.Warn("rejoining consumer group after backoff", "backoff", c.rejoinBackoff)
				select {
				case <-c.ctx.Done():
					return
				case <-time.After(c.rejoinBackoff):
				}
			}

			ready = make(chan bool)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	select {
	case <-firstReady:
		c.logger.Info("Kafka consumer ready")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// process records one message. Undecodable or invalid plays are skipped.
func (c *Consumer) process(ctx context.Context, msg *sarama.ConsumerMessage) outcome {
	var in domain.NewPlay
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		c.logger.Warn("failed to unmarshal message",
			"error", err,
			"offset", msg.Offset,
			"partition", msg.Partition,
		)
		return outcomeSkipped
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	id, err := c.creator.Create(ctx, in)
	switch {
	case err == nil:
		metrics.PlaysCreated.WithLabelValues("kafka").Inc()
		c.logger.Debug("play recorded from kafka", "play_id", id, "offset", msg.Offset)
		return outcomeRecorded
	case errors.Is(err, domain.ErrInvalidPlay):
		c.logger.Warn("invalid play submission",
			"error", err,
			"offset", msg.Offset,
			"partition", msg.Partition,
		)
		return outcomeSkipped
	default:
		c.logger.Error("failed to record play",
			"error", err,
			"offset", msg.Offset,
			"partition", msg.Partition,
		)
		return outcomeFailed
	}
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer    *Consumer
	ready       chan bool
	once        sync.Once
	storeFailed atomic.Bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.once.Do(func() { close(h.ready) })
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim records each message of a partition. Failed messages are left
// unmarked so the session ends and they are redelivered.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil

		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if h.consumer.process(session.Context(), message) == outcomeFailed {
				h.storeFailed.Store(true)
				return errors.New("play store unavailable")
			}
			session.MarkMessage(message, "")
		}
	}
}
