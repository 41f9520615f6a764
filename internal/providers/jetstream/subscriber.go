package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/messaging"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

const (
	// inactiveThreshold lets the server drop consumers of instances that died without cleanup
	inactiveThreshold = 5 * time.Minute
	deleteTimeout     = 5 * time.Second
)

// SubscriberConfig holds the configuration of a delta consumer
type SubscriberConfig struct {
	Config
	// ConsumerName must be unique per process so every process sees every delta
	ConsumerName string
	AckWait      time.Duration
	MaxDeliver   int
}

type subscriber struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	json   adapter.JSON
	config SubscriberConfig
}

// NewSubscriber connects to NATS for consuming deltas
func NewSubscriber(cfg SubscriberConfig, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Subscriber, error) {
	nc, js, err := connect(cfg.Config, natsJS)
	if err != nil {
		return nil, err
	}

	return &subscriber{
		nc:     nc,
		js:     js,
		json:   jsonAdapter,
		config: cfg,
	}, nil
}

// Subscribe consumes new deltas in stream order until the context is cancelled
func (s *subscriber) Subscribe(ctx context.Context, handler messaging.EnvelopeHandler) error {
	logger.InfoCtx(ctx, "Starting delta consumer",
		zap.String("stream", s.config.StreamName),
		zap.String("consumer", s.config.ConsumerName),
	)

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.config.StreamName, jetstream.ConsumerConfig{
		Durable:           s.config.ConsumerName,
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           s.config.AckWait,
		MaxDeliver:        s.config.MaxDeliver,
		FilterSubject:     s.config.prefix() + ".>",
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: inactiveThreshold,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		select {
		case msgChan <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	// Messages are handled one at a time to keep stream order per entity
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Stopping delta consumer")
			return ctx.Err()
		case msg := <-msgChan:
			s.handleMessage(ctx, msg, handler)
		}
	}
}

func (s *subscriber) handleMessage(ctx context.Context, msg adapter.Message, handler messaging.EnvelopeHandler) {
	var env reconcile.Envelope
	if err := s.json.Unmarshal(msg.Data(), &env); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to unmarshal envelope"), zap.String("subject", msg.Subject()))
		// Unparseable data will never succeed
		if err := msg.Term(); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if err := handler(ctx, env); err != nil {
		var delivered uint64
		if metadata, merr := msg.Metadata(); merr == nil {
			delivered = metadata.NumDelivered
		}
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to handle delta"),
			zap.String("key", env.Key()),
			zap.Uint64("deliveryCount", delivered),
		)
		if err := msg.Nak(); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
	}
}

// Close removes this process's consumer and closes the NATS connection
func (s *subscriber) Close() {
	if s.nc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := s.js.DeleteConsumer(ctx, s.config.StreamName, s.config.ConsumerName); err != nil {
		logger.Warn("Failed to delete consumer", zap.String("consumer", s.config.ConsumerName), zap.Error(err))
	}

	s.nc.Close()
}
