package jetstream_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/mocks"
	js "github.com/feral-file/ff-sovereignty/internal/providers/jetstream"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func testConfig() js.Config {
	return js.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "SOVEREIGNTY_DELTAS",
		MaxReconnects:  3,
		ReconnectWait:  time.Second,
		ConnectionName: "test",
		MaxAge:         time.Hour,
	}
}

func testEnvelope(t *testing.T) reconcile.Envelope {
	t.Helper()
	env, err := reconcile.NewEnvelope(reconcile.AuctionUpdated{Auction: domain.Auction{
		ID:          "a.1",
		TerritoryID: "FR",
		Status:      domain.AuctionStatusActive,
		Version:     3,
		UpdatedAt:   testNow,
	}}, testNow, adapter.NewJSON())
	require.NoError(t, err)
	return env
}

func TestPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	conn := mocks.NewMockNatsConn(ctrl)
	stream := mocks.NewMockJetStream(ctrl)
	ctx := context.Background()

	natsJS.EXPECT().Connect("nats://localhost:4222", gomock.Any()).Return(conn, stream, nil)
	stream.EXPECT().EnsureStream(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, cfg jetstream.StreamConfig) error {
		assert.Equal(t, "SOVEREIGNTY_DELTAS", cfg.Name)
		assert.Equal(t, []string{"deltas.>"}, cfg.Subjects)
		assert.Equal(t, time.Hour, cfg.MaxAge)
		return nil
	})

	p, err := js.NewPublisher(ctx, testConfig(), natsJS, adapter.NewJSON())
	require.NoError(t, err)
	assert.Equal(t, "jetstream", p.Name())

	env := testEnvelope(t)
	stream.EXPECT().Publish(ctx, "deltas.auction.a_1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			assert.Contains(t, string(data), `"version":3`)
			assert.Len(t, opts, 1)
			return &jetstream.PubAck{Stream: "SOVEREIGNTY_DELTAS", Sequence: 1}, nil
		})
	require.NoError(t, p.Send(ctx, env))

	stream.EXPECT().Publish(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("nats: timeout"))
	assert.Error(t, p.Send(ctx, env))

	conn.EXPECT().Close()
	p.Close()
}

func TestPublisher_EnsureStreamFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	conn := mocks.NewMockNatsConn(ctrl)
	stream := mocks.NewMockJetStream(ctrl)

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(conn, stream, nil)
	stream.EXPECT().EnsureStream(gomock.Any(), gomock.Any()).Return(errors.New("insufficient resources"))
	conn.EXPECT().Close()

	_, err := js.NewPublisher(context.Background(), testConfig(), natsJS, adapter.NewJSON())
	assert.Error(t, err)
}

func TestSubscriber(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	conn := mocks.NewMockNatsConn(ctrl)
	stream := mocks.NewMockJetStream(ctrl)
	consumer := mocks.NewMockNatsConsumer(ctrl)
	consumeCtx := mocks.NewMockConsumeContext(ctrl)

	data, err := adapter.NewJSON().Marshal(testEnvelope(t))
	require.NoError(t, err)

	good := mocks.NewMockJetStreamMessage(ctrl)
	good.EXPECT().Data().Return(data)
	bad := mocks.NewMockJetStreamMessage(ctrl)
	bad.EXPECT().Data().Return([]byte("{not json"))
	bad.EXPECT().Subject().Return("deltas.auction.a_1")
	bad.EXPECT().Term().Return(nil)
	failing := mocks.NewMockJetStreamMessage(ctrl)
	failing.EXPECT().Data().Return(data)
	failing.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: 2}, nil)
	failing.EXPECT().Nak().Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	good.EXPECT().Ack().DoAndReturn(func() error {
		close(done)
		return nil
	})

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(conn, stream, nil)
	stream.EXPECT().CreateOrUpdateConsumer(gomock.Any(), "SOVEREIGNTY_DELTAS", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
			assert.Equal(t, "api-1", cfg.Durable)
			assert.Equal(t, "deltas.>", cfg.FilterSubject)
			assert.Equal(t, jetstream.DeliverNewPolicy, cfg.DeliverPolicy)
			return consumer, nil
		})
	consumer.EXPECT().Info(gomock.Any()).Return(&jetstream.ConsumerInfo{Name: "api-1"}, nil)
	consumer.EXPECT().Consume(gomock.Any()).DoAndReturn(func(handler adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
		go func() {
			handler(bad)
			handler(failing)
			handler(good)
		}()
		return consumeCtx, nil
	})
	consumeCtx.EXPECT().Stop()

	sub, err := js.NewSubscriber(js.SubscriberConfig{
		Config:       testConfig(),
		ConsumerName: "api-1",
		AckWait:      30 * time.Second,
		MaxDeliver:   3,
	}, natsJS, adapter.NewJSON())
	require.NoError(t, err)

	calls := 0
	var received []reconcile.Envelope
	errCh := make(chan error, 1)
	go func() {
		errCh <- sub.Subscribe(ctx, func(_ context.Context, env reconcile.Envelope) error {
			calls++
			if calls == 1 {
				return errors.New("hub closed")
			}
			received = append(received, env)
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not acknowledged")
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	require.Len(t, received, 1)
	assert.Equal(t, "auction:a.1", received[0].Key())
	assert.Equal(t, int64(3), received[0].Version)

	stream.EXPECT().DeleteConsumer(gomock.Any(), "SOVEREIGNTY_DELTAS", "api-1").Return(nil)
	conn.EXPECT().Close()
	sub.Close()
}
