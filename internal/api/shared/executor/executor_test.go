package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/api/shared/dto"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/executor"
	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/guard"
	"github.com/feral-file/ff-sovereignty/internal/mocks"
	"github.com/feral-file/ff-sovereignty/internal/store"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (executor.Executor, *mocks.MockEngine, *mocks.MockGuard) {
	t.Helper()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	g := mocks.NewMockGuard(ctrl)
	return executor.NewExecutor(engine, g), engine, g
}

func TestExecutor_ListTerritories(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and next offset", func(t *testing.T) {
		exec, engine, _ := setup(t)
		engine.EXPECT().ListTerritories(ctx, store.TerritoryQueryFilter{Limit: 20, Offset: 0}).
			Return([]domain.Territory{{ID: "T1"}, {ID: "T2"}}, uint64(5), nil)

		resp, err := exec.ListTerritories(ctx, nil, nil, nil, nil)
		require.NoError(t, err)
		require.Len(t, resp.Territories, 2)
		assert.Equal(t, uint64(5), resp.Total)
		require.NotNil(t, resp.Offset)
		assert.Equal(t, uint64(2), *resp.Offset)
	})

	t.Run("last page has no next offset", func(t *testing.T) {
		exec, engine, _ := setup(t)
		ruler := "alice"
		sovereignty := domain.SovereigntyRuled
		limit := 2
		offset := uint64(4)
		engine.EXPECT().ListTerritories(ctx, store.TerritoryQueryFilter{
			RulerID:     &ruler,
			Sovereignty: &sovereignty,
			Limit:       2,
			Offset:      4,
		}).Return([]domain.Territory{{ID: "T5"}}, uint64(5), nil)

		resp, err := exec.ListTerritories(ctx, &ruler, &sovereignty, &limit, &offset)
		require.NoError(t, err)
		assert.Nil(t, resp.Offset)
	})
}

func TestExecutor_WritesGoThroughGuard(t *testing.T) {
	ctx := context.Background()
	actor := auction.Actor{UserID: "bob"}
	version := int64(3)
	maxPrice := int64(500)

	t.Run("bid", func(t *testing.T) {
		exec, _, g := setup(t)
		g.EXPECT().PlaceBid(ctx, guard.BidRequest{AuctionID: "a1", BidderID: "bob", Amount: 120, ObservedVersion: &version}).
			Return(&domain.Auction{ID: "a1", CurrentBid: 120, MinNextBid: 121, Version: 4}, nil)

		resp, err := exec.PlaceBid(ctx, "a1", actor, dto.PlaceBidRequest{Amount: 120, ObservedVersion: &version})
		require.NoError(t, err)
		assert.Equal(t, int64(121), resp.MinNextBid)
	})

	t.Run("buy now", func(t *testing.T) {
		exec, _, g := setup(t)
		g.EXPECT().BuyNow(ctx, guard.BuyNowRequest{TerritoryID: "T1", BuyerID: "bob", ObservedVersion: &version, MaxPrice: &maxPrice}).
			Return(nil, domain.NewStalePrice(4, 550))

		_, err := exec.BuyNow(ctx, "T1", actor, dto.BuyNowRequest{ObservedVersion: &version, MaxPrice: &maxPrice})
		assert.ErrorIs(t, err, domain.ErrStaleState)
	})
}

func TestExecutor_CreateAuction(t *testing.T) {
	ctx := context.Background()
	exec, engine, _ := setup(t)

	days := 7
	seconds := int64(3600)
	actor := auction.Actor{UserID: "alice"}
	engine.EXPECT().CreateAuction(ctx, "T1", actor, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ auction.Actor, opts auction.CreateAuctionOptions) (*domain.Auction, error) {
			assert.Equal(t, domain.AuctionTypeProtectionExtension, opts.Type)
			assert.Equal(t, &days, opts.ProtectionDays)
			require.NotNil(t, opts.Duration)
			assert.Equal(t, time.Hour, *opts.Duration)
			assert.Nil(t, opts.StartingBid)
			return &domain.Auction{ID: "a1", TerritoryID: "T1", Type: opts.Type, EndTime: testNow.Add(time.Hour)}, nil
		})

	resp, err := exec.CreateAuction(ctx, "T1", actor, dto.CreateAuctionRequest{
		Type:            domain.AuctionTypeProtectionExtension,
		ProtectionDays:  &days,
		DurationSeconds: &seconds,
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", resp.ID)
}

func TestExecutor_EndAuction(t *testing.T) {
	ctx := context.Background()

	t.Run("forced end requires admin", func(t *testing.T) {
		exec, _, _ := setup(t)
		_, err := exec.EndAuction(ctx, "a1", auction.Actor{UserID: "bob"}, true)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admin may force", func(t *testing.T) {
		exec, engine, _ := setup(t)
		engine.EXPECT().EndAuction(ctx, "a1", true).
			Return(&domain.Auction{ID: "a1", Status: domain.AuctionStatusEnded}, nil)

		resp, err := exec.EndAuction(ctx, "a1", auction.Actor{UserID: "admin", Admin: true}, true)
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionStatusEnded, resp.Status)
	})

	t.Run("anyone may settle an expired auction", func(t *testing.T) {
		exec, engine, _ := setup(t)
		engine.EXPECT().EndAuction(ctx, "a1", false).Return(nil, domain.NewAuctionNotActive(domain.AuctionStatusCancelled))

		_, err := exec.EndAuction(ctx, "a1", auction.Actor{UserID: "bob"}, false)
		assert.ErrorIs(t, err, domain.ErrAuctionNotActive)
	})
}

func TestExecutor_GetChanges(t *testing.T) {
	ctx := context.Background()
	subjectType := schema.SubjectTypeTerritory
	subjectID := "T1"
	anchor := uint64(10)

	t.Run("full page sets next anchor", func(t *testing.T) {
		exec, engine, _ := setup(t)
		limit := 2
		engine.EXPECT().GetChanges(ctx, store.ChangesQueryFilter{
			SubjectType: &subjectType,
			SubjectID:   &subjectID,
			Since:       10,
			Limit:       2,
		}).Return([]schema.ChangesJournal{
			{Cursor: 11, SubjectType: subjectType, SubjectID: "T1", ChangedAt: testNow},
			{Cursor: 14, SubjectType: subjectType, SubjectID: "T1", ChangedAt: testNow},
		}, nil)

		resp, err := exec.GetChanges(ctx, &subjectType, &subjectID, &anchor, &limit)
		require.NoError(t, err)
		require.Len(t, resp.Changes, 2)
		require.NotNil(t, resp.NextAnchor)
		assert.Equal(t, uint64(14), *resp.NextAnchor)
	})

	t.Run("short page ends the feed", func(t *testing.T) {
		exec, engine, _ := setup(t)
		engine.EXPECT().GetChanges(ctx, gomock.Any()).
			Return([]schema.ChangesJournal{{Cursor: 1, SubjectType: subjectType, SubjectID: "T1", ChangedAt: testNow}}, nil)

		resp, err := exec.GetChanges(ctx, nil, nil, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, resp.NextAnchor)
	})

	t.Run("store failure", func(t *testing.T) {
		exec, engine, _ := setup(t)
		engine.EXPECT().GetChanges(ctx, gomock.Any()).Return(nil, errors.New("boom"))

		_, err := exec.GetChanges(ctx, nil, nil, nil, nil)
		assert.Error(t, err)
	})
}
