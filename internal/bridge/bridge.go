package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/messaging"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

// Dispatcher merges an envelope into local subscriber state.
// It reports false when the envelope was older than what is held.
type Dispatcher interface {
	Dispatch(env reconcile.Envelope) bool
}

// Bridge defines the interface for the delta bridge
type Bridge interface {
	// Run consumes deltas until the context is cancelled
	Run(ctx context.Context) error
	// Stats returns how many deltas were applied and discarded as stale
	Stats() Stats
	// Close closes the bridge and cleans up resources
	Close()
}

// Stats counts bridged deltas
type Stats struct {
	Applied   uint64
	Discarded uint64
}

type bridge struct {
	subscriber messaging.Subscriber
	dispatcher Dispatcher
	applied    atomic.Uint64
	discarded  atomic.Uint64
}

// NewBridge creates a bridge that feeds deltas committed by any process
// (api replicas, sweepers) into the local dispatcher
func NewBridge(subscriber messaging.Subscriber, dispatcher Dispatcher) Bridge {
	return &bridge{
		subscriber: subscriber,
		dispatcher: dispatcher,
	}
}

// Run starts the delta bridge
func (b *bridge) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting delta bridge")

	err := b.subscriber.Subscribe(ctx, b.handleEnvelope)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("delta bridge stopped: %w", err)
	}

	stats := b.Stats()
	logger.InfoCtx(ctx, "Delta bridge stopped",
		zap.Uint64("applied", stats.Applied),
		zap.Uint64("discarded", stats.Discarded),
	)
	return nil
}

// handleEnvelope never fails: a stale or duplicate delta is acknowledged and dropped
func (b *bridge) handleEnvelope(ctx context.Context, env reconcile.Envelope) error {
	if b.dispatcher.Dispatch(env) {
		b.applied.Add(1)
		logger.DebugCtx(ctx, "Delta applied",
			zap.String("key", env.Key()),
			zap.Int64("version", env.Version),
			zap.String("kind", string(env.Kind)),
		)
		return nil
	}

	b.discarded.Add(1)
	logger.DebugCtx(ctx, "Delta discarded as stale",
		zap.String("key", env.Key()),
		zap.Int64("version", env.Version),
	)
	return nil
}

func (b *bridge) Stats() Stats {
	return Stats{
		Applied:   b.applied.Load(),
		Discarded: b.discarded.Load(),
	}
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.subscriber == nil {
		return
	}

	b.subscriber.Close()
}
