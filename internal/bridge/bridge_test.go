package bridge_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/bridge"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/messaging"
	"github.com/feral-file/ff-sovereignty/internal/mocks"
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

func TestBridge_RunFeedsHub(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache, err := reconcile.NewCache(16)
	require.NoError(t, err)
	hub := reconcile.NewHub(cache, 8)
	defer hub.Close()
	sub := hub.Subscribe(reconcile.NewFilter([]string{"FR"}, nil))

	subscriber := mocks.NewMockSubscriber(ctrl)
	subscriber.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, handler messaging.EnvelopeHandler) error {
			for _, v := range []int64{2, 1, 3, 3} {
				env := reconcile.SnapshotEnvelope(reconcile.EntityTypeTerritory, "FR", "FR", v, testNow)
				require.NoError(t, handler(ctx, env))
			}
			return context.Canceled
		})
	subscriber.EXPECT().Close()

	b := bridge.NewBridge(subscriber, hub)
	require.NoError(t, b.Run(context.Background()))
	b.Close()

	assert.Equal(t, bridge.Stats{Applied: 2, Discarded: 2}, b.Stats())

	var versions []int64
	for len(versions) < 2 {
		select {
		case env := <-sub.C():
			versions = append(versions, env.Version)
		case <-time.After(time.Second):
			t.Fatal("expected two deliveries")
		}
	}
	assert.Equal(t, []int64{2, 3}, versions)
}

func TestBridge_RunFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	subscriber := mocks.NewMockSubscriber(ctrl)
	subscriber.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(errors.New("failed to create/update consumer"))

	cache, err := reconcile.NewCache(16)
	require.NoError(t, err)

	err = bridge.NewBridge(subscriber, reconcile.NewHub(cache, 8)).Run(context.Background())
	assert.Error(t, err)
}
