package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

const sinkTimeout = 5 * time.Second

//go:generate mockgen -source=broadcaster.go -destination=../mocks/reconcile.go -package=mocks -mock_names=Sink=MockSink,Broadcaster=MockBroadcaster

// Sink receives every envelope the broadcaster emits
type Sink interface {
	Name() string
	Send(ctx context.Context, env Envelope) error
}

// Broadcaster emits committed mutations to every sink. Delivery is best
// effort: a failing sink is logged and never undoes the committed write.
type Broadcaster interface {
	Publish(ctx context.Context, deltas ...Delta)
}

type broadcaster struct {
	clock adapter.Clock
	json  adapter.JSON
	sinks []Sink
}

// NewBroadcaster creates a broadcaster over the given sinks
func NewBroadcaster(clock adapter.Clock, json adapter.JSON, sinks ...Sink) Broadcaster {
	return &broadcaster{
		clock: clock,
		json:  json,
		sinks: sinks,
	}
}

func (b *broadcaster) Publish(ctx context.Context, deltas ...Delta) {
	// The write is committed; deliver even if the caller has gone away
	ctx = context.WithoutCancel(ctx)

	for _, d := range deltas {
		env, err := NewEnvelope(d, b.clock.Now(), b.json)
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("kind", string(d.Kind())), zap.String("id", d.EntityID()))
			continue
		}

		for _, sink := range b.sinks {
			sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
			err := sink.Send(sinkCtx, env)
			cancel()
			if err != nil {
				logger.WarnCtx(ctx, "Failed to deliver delta",
					zap.String("sink", sink.Name()),
					zap.String("kind", string(env.Kind)),
					zap.String("entity", env.Key()),
					zap.Int64("version", env.Version),
					zap.Error(err))
			}
		}
	}
}
