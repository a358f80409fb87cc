package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"seatstudio/pkg/logger"
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	Workers              int
	SessionTimeoutMs     int
	HeartbeatMs          int
	RetryBackoffMs       int
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              defaultGroupPrefix,
		Topics:               []string{"seating-events"},
		Workers:              1,
		SessionTimeoutMs:     30000,
		HeartbeatMs:          3000,
		RetryBackoffMs:       100,
		MaxProcessingTime:    time.Minute,
		OffsetOldest:         false,
		MaxRetries:           3,
		RetryBackoffDuration: 200 * time.Millisecond,
	}
}

// KafkaSubscriber consumes domain events with a consumer group.
type KafkaSubscriber struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

func NewKafkaSubscriber(config *ConsumerConfig) (Subscriber, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Retry.Backoff = time.Duration(config.RetryBackoffMs) * time.Millisecond
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaSubscriber{
		consumerGroup: consumerGroup,
		config:        config,
	}, nil
}

func (ks *KafkaSubscriber) Start(ctx context.Context, handler Handler) error {
	ctx, ks.cancel = context.WithCancel(ctx)
	log := logger.GetDefault()
	log.Info("Starting event consumers", "workers", ks.config.Workers, "topics", ks.config.Topics)

	go func() {
		for err := range ks.consumerGroup.Errors() {
			log.Error("Consumer group error", "error", err)
		}
	}()

	workers := ks.config.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		ks.wg.Add(1)
		go func(workerID int) {
			defer ks.wg.Done()
			ks.runWorker(ctx, workerID, handler)
		}(i)
	}
	return nil
}

func (ks *KafkaSubscriber) runWorker(ctx context.Context, workerID int, handler Handler) {
	groupHandler := &consumerGroupHandler{
		workerID: workerID,
		handler:  handler,
		retry:    retryPolicy{max: ks.config.MaxRetries, backoff: ks.config.RetryBackoffDuration},
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := ks.consumerGroup.Consume(ctx, ks.config.Topics, groupHandler); err != nil {
				logger.GetDefault().Error("Error consuming messages", "worker", workerID, "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (ks *KafkaSubscriber) Stop() error {
	if ks.cancel != nil {
		ks.cancel()
	}
	ks.wg.Wait()

	if err := ks.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type consumerGroupHandler struct {
	workerID int
	handler  Handler
	retry    retryPolicy
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.processMessage(session.Context(), message.Value); err != nil {
				logger.GetDefault().Error("Error processing event",
					"worker", h.workerID, "partition", message.Partition, "offset", message.Offset, "error", err)
			}
			// undecodable or permanently failing messages are skipped
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, value []byte) error {
	event, err := FromJSON(value)
	if err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if err := validate(event); err != nil {
		return err
	}
	return h.retry.run(ctx, func() error { return h.handler(ctx, event) })
}

type retryPolicy struct {
	max     int
	backoff time.Duration
}

// run retries fn with exponential backoff.
func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= p.max; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == p.max {
			break
		}

		delay := p.backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
