package signalr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

const (
	// DefaultTarget is the hub method invoked for every delta
	DefaultTarget = "delta"

	SEND_TIMEOUT = 5 * time.Second
)

// ErrSendTimeout is returned when the hub did not acknowledge a send in time
var ErrSendTimeout = errors.New("signalr send timed out")

// Config holds the configuration of the outbound SignalR hub
type Config struct {
	URL         string
	AccessToken string
	Target      string
}

// Sink pushes delta envelopes to a SignalR hub. The connection is opened on
// the first send and reopened after a failed one.
type Sink struct {
	mu      sync.Mutex
	client  adapter.SignalRClient
	signalR adapter.SignalR
	clock   adapter.Clock
	config  Config

	// connCtx outlives individual sends; it ends with Close
	connCtx context.Context
	cancel  context.CancelFunc
}

// receiver is the client-side hub; the sink never handles server invocations
type receiver struct{}

// NewSink creates a new SignalR sink
func NewSink(cfg Config, signalR adapter.SignalR, clock adapter.Clock) *Sink {
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sink{
		signalR: signalR,
		clock:   clock,
		config:  cfg,
		connCtx: ctx,
		cancel:  cancel,
	}
}

func (s *Sink) Name() string {
	return "signalr"
}

// Send invokes the hub target with the envelope
func (s *Sink) Send(ctx context.Context, env reconcile.Envelope) error {
	client, err := s.connect()
	if err != nil {
		return err
	}

	errCh := client.Send(s.config.Target, env)
	select {
	case err := <-errCh:
		if err != nil {
			s.reset(client)
			return fmt.Errorf("failed to send delta %s: %w", env.Key(), err)
		}
		return nil
	case <-s.clock.After(SEND_TIMEOUT):
		s.reset(client)
		return fmt.Errorf("delta %s: %w", env.Key(), ErrSendTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) connect() (adapter.SignalRClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	if s.connCtx.Err() != nil {
		return nil, fmt.Errorf("signalr sink closed: %w", s.connCtx.Err())
	}

	client, err := s.signalR.NewClient(s.connCtx, s.config.URL, s.config.AccessToken, &receiver{})
	if err != nil {
		return nil, fmt.Errorf("failed to create SignalR client: %w", err)
	}
	client.Start()
	s.client = client

	logger.Info("Connected to SignalR hub", zap.String("url", s.config.URL), zap.String("target", s.config.Target))
	return client, nil
}

func (s *Sink) reset(client adapter.SignalRClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != client {
		return
	}
	client.Stop()
	s.client = nil
}

// Close stops the hub connection
func (s *Sink) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Stop()
		s.client = nil
	}
}
