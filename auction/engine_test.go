package auction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shehrozeikram/CarWheels-sub000/adapters/events"
	"github.com/shehrozeikram/CarWheels-sub000/auction"
	"github.com/shehrozeikram/CarWheels-sub000/models"
	"github.com/shehrozeikram/CarWheels-sub000/notifications"
	"github.com/shehrozeikram/CarWheels-sub000/store"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newEngine 建立一個掛著單一刊登、時鐘固定的引擎
func newEngine(t *testing.T, price int64) (*auction.Engine, *store.ListingStore, *notifications.Dispatcher) {
	t.Helper()
	listings := store.New(nil)
	listings.Initialize(map[string][]models.Listing{
		"Corolla": {{
			ID:           "lst-1",
			Title:        "Toyota Corolla GLi",
			Price:        price,
			PriceDisplay: models.FormatPKR(price),
			Status:       models.ListingActive,
		}},
	})
	dispatcher := notifications.New(nil)
	engine := auction.New(listings, dispatcher, nil, auction.WithClock(func() time.Time { return baseTime }))
	return engine, listings, dispatcher
}

func TestOpenSetsOpeningBidToEightyPercent(t *testing.T) {
	engine, _, _ := newEngine(t, 50*models.Lac)

	listing, err := engine.Open("lst-1", baseTime.Add(48*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, listing.Auction)
	assert.Equal(t, int64(40*models.Lac), listing.Auction.CurrentBid)
	assert.Equal(t, baseTime.Add(48*time.Hour), listing.Auction.EndTime)
	assert.Empty(t, listing.Auction.Bids)
}

func TestOpenUnknownListing(t *testing.T) {
	engine, _, _ := newEngine(t, 50*models.Lac)
	_, err := engine.Open("missing", baseTime.Add(time.Hour))
	assert.ErrorIs(t, err, auction.ErrNoAuction)
}

func TestMinimumNextBidIsDerived(t *testing.T) {
	state := &models.AuctionState{CurrentBid: 4_000_000}
	assert.Equal(t, int64(4_200_000), auction.MinimumNextBid(state))

	// 無法整除時向上取整
	state.CurrentBid = 1_000_001
	assert.Equal(t, int64(1_050_002), auction.MinimumNextBid(state))
}

func TestPlaceBidHappyPath(t *testing.T) {
	engine, listings, dispatcher := newEngine(t, 50*models.Lac)
	_, err := engine.Open("lst-1", baseTime.Add(48*time.Hour))
	require.NoError(t, err)

	minimum := int64(42 * models.Lac) // ceil(40 lacs × 1.05)
	updated, err := engine.PlaceBid("lst-1", minimum, "ali")
	require.NoError(t, err)

	require.NotNil(t, updated.Auction)
	assert.Equal(t, minimum, updated.Auction.CurrentBid)
	assert.Equal(t, "ali", updated.Auction.HighestBidder)
	require.Len(t, updated.Auction.Bids, 1)
	assert.Equal(t, minimum, updated.Auction.Bids[0].Amount)

	// 出價事件必須進入通知收件匣
	inbox := dispatcher.List()
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationBidPlaced, inbox[0].Kind)

	// store 內的狀態是權威版本
	stored, ok := listings.Get("lst-1")
	require.True(t, ok)
	assert.Equal(t, minimum, stored.Auction.CurrentBid)
}

func TestPlaceBidPrependsHistory(t *testing.T) {
	engine, _, _ := newEngine(t, 50*models.Lac)
	_, err := engine.Open("lst-1", baseTime.Add(48*time.Hour))
	require.NoError(t, err)

	first := int64(42 * models.Lac)
	_, err = engine.PlaceBid("lst-1", first, "ali")
	require.NoError(t, err)

	second := int64(45 * models.Lac)
	updated, err := engine.PlaceBid("lst-1", second, "sara")
	require.NoError(t, err)

	// 最新在前
	require.Len(t, updated.Auction.Bids, 2)
	assert.Equal(t, "sara", updated.Auction.Bids[0].Bidder)
	assert.Equal(t, "ali", updated.Auction.Bids[1].Bidder)
	assert.Equal(t, second, updated.Auction.CurrentBid)
}

func TestPlaceBidBelowMinimumIsRejected(t *testing.T) {
	engine, listings, dispatcher := newEngine(t, 50*models.Lac)
	_, err := engine.Open("lst-1", baseTime.Add(48*time.Hour))
	require.NoError(t, err)

	before, _ := listings.Get("lst-1")
	_, err = engine.PlaceBid("lst-1", before.Auction.CurrentBid, "ali")
	assert.ErrorIs(t, err, auction.ErrInvalidBid)

	// 失敗的出價不得改動任何狀態
	after, _ := listings.Get("lst-1")
	assert.Equal(t, before.Auction.CurrentBid, after.Auction.CurrentBid)
	assert.Empty(t, after.Auction.Bids)
	assert.Empty(t, dispatcher.List())
}

func TestPlaceBidOnEndedAuction(t *testing.T) {
	engine, listings, _ := newEngine(t, 50*models.Lac)
	// 結束時間正好等於現在，now ≥ endTime 即視為結束
	_, err := engine.Open("lst-1", baseTime)
	require.NoError(t, err)

	before, _ := listings.Get("lst-1")
	_, err = engine.PlaceBid("lst-1", 100*models.Lac, "ali")
	assert.ErrorIs(t, err, auction.ErrAuctionEnded)

	after, _ := listings.Get("lst-1")
	assert.Equal(t, before.Auction.CurrentBid, after.Auction.CurrentBid)
	assert.Empty(t, after.Auction.Bids)
}

func TestPlaceBidWithoutAuction(t *testing.T) {
	engine, _, _ := newEngine(t, 50*models.Lac)
	_, err := engine.PlaceBid("lst-1", 100*models.Lac, "ali")
	assert.ErrorIs(t, err, auction.ErrNoAuction)
}

func TestCurrentBidIsMonotonic(t *testing.T) {
	engine, listings, _ := newEngine(t, 50*models.Lac)
	_, err := engine.Open("lst-1", baseTime.Add(48*time.Hour))
	require.NoError(t, err)

	last := int64(0)
	amount := int64(42 * models.Lac)
	for i := 0; i < 5; i++ {
		updated, err := engine.PlaceBid("lst-1", amount, "ali")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, updated.Auction.CurrentBid, last)
		last = updated.Auction.CurrentBid
		amount = auction.MinimumNextBid(updated.Auction)
	}

	stored, _ := listings.Get("lst-1")
	assert.Equal(t, last, stored.Auction.CurrentBid)
	assert.Len(t, stored.Auction.Bids, 5)
}

func TestRemaining(t *testing.T) {
	state := &models.AuctionState{EndTime: baseTime.Add(time.Hour)}
	assert.Equal(t, time.Hour, auction.Remaining(state, baseTime))
	assert.Zero(t, auction.Remaining(state, baseTime.Add(2*time.Hour)))
}

func TestPlaceBidBroadcastsEvent(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := events.NewBroker[auction.BidEvent](nil)
	broker.Start()
	defer broker.Done()

	listings := store.New(nil)
	listings.Initialize(map[string][]models.Listing{
		"Corolla": {{ID: "lst-1", Title: "Corolla", Price: 50 * models.Lac, Status: models.ListingActive}},
	})
	engine := auction.New(listings, nil, nil,
		auction.WithClock(func() time.Time { return baseTime }),
		auction.WithBroker(broker))

	_, err := engine.Open("lst-1", baseTime.Add(48*time.Hour))
	require.NoError(t, err)

	ch, err := broker.Subscribe("lst-1")
	require.NoError(t, err)
	defer broker.Unsubscribe("lst-1", ch)

	_, err = engine.PlaceBid("lst-1", 42*models.Lac, "ali")
	require.NoError(t, err)

	select {
	case event := <-ch:
		assert.Equal(t, "lst-1", event.ListingID)
		assert.Equal(t, int64(42*models.Lac), event.Amount)
		assert.Equal(t, "ali", event.Bidder)
	case <-time.After(time.Second):
		t.Fatal("did not receive bid event in time")
	}
}
