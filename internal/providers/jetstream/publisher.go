package jetstream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/messaging"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

type publisher struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	prefix string
	json   adapter.JSON
}

// NewPublisher connects to NATS and makes sure the delta stream exists
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	nc, js, err := connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	prefix := cfg.prefix()
	err = js.EnsureStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{prefix + ".>"},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		Duplicates: duplicateWindow,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	return &publisher{
		nc:     nc,
		js:     js,
		prefix: prefix,
		json:   jsonAdapter,
	}, nil
}

func (p *publisher) Name() string {
	return "jetstream"
}

// Send publishes a delta envelope. The message ID makes redelivered
// publishes of the same entity version idempotent.
func (p *publisher) Send(ctx context.Context, env reconcile.Envelope) error {
	logger.DebugCtx(ctx, "Publishing delta", zap.String("key", env.Key()), zap.Int64("version", env.Version))

	data, err := p.json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	_, err = p.js.Publish(ctx, env.Subject(p.prefix), data, jetstream.WithMsgID(env.DedupeID()))
	if err != nil {
		return fmt.Errorf("failed to publish delta: %w", err)
	}

	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
