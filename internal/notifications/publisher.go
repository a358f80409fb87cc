package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnknownBroker  = errors.New("unknown event broker")
	ErrInvalidEvent   = errors.New("invalid domain event")
	ErrPublisherClose = errors.New("publisher closed")
)

// Publisher sends domain events to the configured broker.
type Publisher interface {
	Publish(ctx context.Context, event *DomainEvent) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// Handler processes one consumed domain event.
type Handler func(ctx context.Context, event *DomainEvent) error

// Subscriber delivers domain events published by other instances.
type Subscriber interface {
	Start(ctx context.Context, handler Handler) error
	Stop() error
}

type Broker string

const (
	BrokerKafka    Broker = "kafka"
	BrokerRabbitMQ Broker = "rabbitmq"
	BrokerNone     Broker = "none"
)

type Config struct {
	Broker           Broker
	InstanceID       string
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaGroupPrefix string
	RabbitMQURL      string
	RabbitMQExchange string
	ConsumeWorkers   int
}

const defaultGroupPrefix = "seatstudio-availability"

// InstanceGroupID names the consumer group of one instance. Every instance
// needs its own group so each of them sees every seat event.
func InstanceGroupID(prefix, instanceID string) string {
	if prefix == "" {
		prefix = defaultGroupPrefix
	}
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return prefix + "-" + instanceID
}

// NewPublisher builds the publisher for cfg.Broker. BrokerNone and an empty
// broker yield a NoopPublisher.
func NewPublisher(cfg Config) (Publisher, error) {
	switch Broker(strings.ToLower(string(cfg.Broker))) {
	case BrokerKafka:
		kcfg := DefaultKafkaProducerConfig()
		if len(cfg.KafkaBrokers) > 0 {
			kcfg.Brokers = cfg.KafkaBrokers
		}
		if cfg.KafkaTopic != "" {
			kcfg.Topic = cfg.KafkaTopic
		}
		return NewKafkaPublisher(kcfg)
	case BrokerRabbitMQ:
		return NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	case BrokerNone, "":
		return NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBroker, cfg.Broker)
	}
}

// NewSubscriber builds the consumer matching cfg.Broker, or nil when events
// are disabled.
func NewSubscriber(cfg Config) (Subscriber, error) {
	switch Broker(strings.ToLower(string(cfg.Broker))) {
	case BrokerKafka:
		ccfg := DefaultConsumerConfig()
		if len(cfg.KafkaBrokers) > 0 {
			ccfg.Brokers = cfg.KafkaBrokers
		}
		if cfg.KafkaTopic != "" {
			ccfg.Topics = []string{cfg.KafkaTopic}
		}
		ccfg.GroupID = InstanceGroupID(cfg.KafkaGroupPrefix, cfg.InstanceID)
		if cfg.ConsumeWorkers > 0 {
			ccfg.Workers = cfg.ConsumeWorkers
		}
		return NewKafkaSubscriber(ccfg)
	case BrokerRabbitMQ:
		return NewRabbitSubscriber(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	case BrokerNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBroker, cfg.Broker)
	}
}

func validate(event *DomainEvent) error {
	if event == nil || !event.Type.IsValid() || event.EventID == "" {
		return ErrInvalidEvent
	}
	return nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event *DomainEvent) error {
	return validate(event)
}

func (NoopPublisher) Close() error { return nil }

func (NoopPublisher) HealthCheck(ctx context.Context) error { return nil }
