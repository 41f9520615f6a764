package jetstream

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

const (
	// DefaultSubjectPrefix is the subject root of every delta
	DefaultSubjectPrefix = "deltas"

	// duplicateWindow is how long JetStream remembers message IDs for deduplication
	duplicateWindow = 2 * time.Minute
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// MaxAge bounds how long deltas are retained by the stream
	MaxAge time.Duration
}

func (c Config) prefix() string {
	if c.SubjectPrefix == "" {
		return DefaultSubjectPrefix
	}
	return c.SubjectPrefix
}

// connect opens a NATS connection with logging handlers
func connect(cfg Config, natsJS adapter.NatsJetStream) (adapter.NatsConn, adapter.JetStream, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}
	return nc, js, nil
}
