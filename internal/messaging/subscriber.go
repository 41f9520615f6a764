package messaging

import (
	"context"

	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

// EnvelopeHandler is called when a delta envelope is received.
// Returning an error asks the broker to redeliver it.
type EnvelopeHandler func(ctx context.Context, env reconcile.Envelope) error

// Subscriber defines the interface for consuming deltas published by any process
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// Subscribe consumes deltas until the context is cancelled
	Subscribe(ctx context.Context, handler EnvelopeHandler) error

	// Close closes the connection and cleans up resources
	Close()
}
