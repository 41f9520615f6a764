package messaging

import (
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

// Publisher defines the interface for publishing committed deltas to the message broker.
// It is a reconcile.Sink so the broadcaster can fan out to it directly.
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	reconcile.Sink

	// Close closes the connection
	Close()
}
