package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

func newTestHub(t *testing.T, buffer int) *reconcile.Hub {
	t.Helper()
	cache, err := reconcile.NewCache(64)
	require.NoError(t, err)
	return reconcile.NewHub(cache, buffer)
}

func auctionEnv(id, territoryID string, version int64) reconcile.Envelope {
	return reconcile.SnapshotEnvelope(reconcile.EntityTypeAuction, id, territoryID, version, testNow)
}

func TestFilter_Match(t *testing.T) {
	all := reconcile.NewFilter(nil, nil)
	assert.True(t, all.Match(territoryEnv("FR", 1, testNow)))
	assert.True(t, all.Match(auctionEnv("a1", "FR", 1)))

	byTerritory := reconcile.NewFilter([]string{"FR"}, nil)
	assert.True(t, byTerritory.Match(territoryEnv("FR", 1, testNow)))
	assert.True(t, byTerritory.Match(auctionEnv("a1", "FR", 1)))
	assert.False(t, byTerritory.Match(territoryEnv("JP", 1, testNow)))

	byAuction := reconcile.NewFilter(nil, []string{"a1"})
	assert.True(t, byAuction.Match(auctionEnv("a1", "FR", 1)))
	assert.False(t, byAuction.Match(auctionEnv("a2", "FR", 1)))
	assert.False(t, byAuction.Match(territoryEnv("FR", 1, testNow)))
}

func TestHub_DispatchDropsStaleAndDuplicates(t *testing.T) {
	hub := newTestHub(t, 8)
	sub := hub.Subscribe(reconcile.NewFilter([]string{"FR"}, nil))
	defer sub.Close()

	assert.True(t, hub.Dispatch(territoryEnv("FR", 2, testNow)))
	assert.False(t, hub.Dispatch(territoryEnv("FR", 2, testNow)))
	assert.False(t, hub.Dispatch(territoryEnv("FR", 1, testNow)))
	assert.True(t, hub.Dispatch(territoryEnv("JP", 1, testNow)))
	require.NoError(t, hub.Send(context.Background(), territoryEnv("FR", 3, testNow)))

	got := make([]int64, 0)
	for len(got) < 2 {
		select {
		case env := <-sub.C():
			assert.Equal(t, "FR", env.ID)
			got = append(got, env.Version)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delta")
		}
	}
	assert.Equal(t, []int64{2, 3}, got)

	select {
	case env := <-sub.C():
		t.Fatalf("unexpected delta %+v", env)
	default:
	}
}

func TestHub_DisconnectsSlowSubscriber(t *testing.T) {
	hub := newTestHub(t, 1)
	slow := hub.Subscribe(reconcile.NewFilter(nil, nil))
	fast := hub.Subscribe(reconcile.NewFilter(nil, nil))
	assert.Equal(t, 2, hub.Subscribers())

	hub.Dispatch(territoryEnv("FR", 1, testNow))
	<-fast.C()
	hub.Dispatch(territoryEnv("FR", 2, testNow))

	assert.True(t, slow.Dropped())
	assert.False(t, fast.Dropped())
	assert.Equal(t, 1, hub.Subscribers())

	// buffered delta is still readable, then the channel is closed
	env, ok := <-slow.C()
	require.True(t, ok)
	assert.Equal(t, int64(1), env.Version)
	_, ok = <-slow.C()
	assert.False(t, ok)

	env = <-fast.C()
	assert.Equal(t, int64(2), env.Version)
}

func TestHub_Close(t *testing.T) {
	hub := newTestHub(t, 4)
	sub := hub.Subscribe(reconcile.NewFilter(nil, nil))
	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers())
	assert.False(t, sub.Dropped())

	other := hub.Subscribe(reconcile.NewFilter(nil, nil))
	hub.Close()
	_, ok := <-other.C()
	assert.False(t, ok)
}
