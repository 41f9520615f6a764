package adapter

import (
	"context"
	"net/http"

	"github.com/philippseith/signalr"
)

// SignalRClient defines an interface for SignalR client operations to enable mocking
//
//go:generate mockgen -source=signalr.go -destination=../mocks/signalr.go -package=mocks -mock_names=SignalRClient=MockSignalRClient
type SignalRClient interface {
	Start()
	Send(target string, args ...interface{}) <-chan error
	Stop()
}

// SignalR defines an interface for creating SignalR clients
//
//go:generate mockgen -source=signalr.go -destination=../mocks/signalr.go -package=mocks -mock_names=SignalR=MockSignalR
type SignalR interface {
	// NewClient connects to a hub; a non-empty access token is sent as a bearer header
	NewClient(ctx context.Context, address string, accessToken string, receiver interface{}) (SignalRClient, error)
}

// RealSignalR implements SignalR using the standard signalr package
type RealSignalR struct{}

// NewSignalR creates a new real SignalR
func NewSignalR() SignalR {
	return &RealSignalR{}
}

func (s *RealSignalR) NewClient(ctx context.Context, address string, accessToken string, receiver interface{}) (SignalRClient, error) {
	conn, err := signalr.NewHTTPConnection(ctx, address, signalr.WithHTTPHeaders(func() http.Header {
		h := http.Header{}
		if accessToken != "" {
			h.Set("Authorization", "Bearer "+accessToken)
		}
		return h
	}))
	if err != nil {
		return nil, err
	}

	return signalr.NewClient(ctx, signalr.WithConnection(conn), signalr.WithReceiver(receiver))
}
