// Package auction 驗證並套用出價狀態轉移。
// 引擎本身不持有計時器：倒數與到期都是以 (endTime - now) 推導的
// 純函式，由呼叫端在需要時求值。
package auction

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shehrozeikram/CarWheels-sub000/adapters/events"
	"github.com/shehrozeikram/CarWheels-sub000/models"
	"github.com/shehrozeikram/CarWheels-sub000/notifications"
	"github.com/shehrozeikram/CarWheels-sub000/store"
)

var (
	// ErrInvalidBid 表示金額低於最低加價門檻
	ErrInvalidBid = errors.New("bid below minimum increment")
	// ErrAuctionEnded 表示拍賣已經結束，出價一律拒絕
	ErrAuctionEnded = errors.New("auction has ended")
	// ErrNoAuction 表示刊登不存在或沒有啟用競標
	ErrNoAuction = errors.New("listing has no active auction")
)

// 起標價是要價的八成
const openingRatio = 0.8

// 每次出價至少要比目前價高 5%
const minIncrementRatio = 1.05

// BidEvent 是成功出價後廣播給訂閱者的事件
type BidEvent struct {
	ListingID string    `json:"listingId"`
	Amount    int64     `json:"amount"`
	Bidder    string    `json:"bidder"`
	Time      time.Time `json:"time"`
}

// Engine 對 ListingStore 內的刊登套用競標狀態轉移。
// 所有變更都經由 store.Mutate，訂閱者因此會同步收到新快照。
type Engine struct {
	store      *store.ListingStore
	dispatcher *notifications.Dispatcher
	broker     events.IBroker[BidEvent]
	now        func() time.Time
	logger     *slog.Logger
}

// Option 用於調整 Engine 的建構
type Option func(*Engine)

// WithClock 讓測試注入固定時鐘
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithBroker 設定成功出價後廣播 BidEvent 的代理
func WithBroker(broker events.IBroker[BidEvent]) Option {
	return func(e *Engine) {
		e.broker = broker
	}
}

func New(listings *store.ListingStore, dispatcher *notifications.Dispatcher, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	engine := &Engine{
		store:      listings,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     logger.With(slog.String("caller", "AuctionEngine")),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Open 在刊登上啟用競標：起標價為要價的 0.8 倍，
// EndTime 在此刻固定，之後的出價不會延長它。
func (e *Engine) Open(listingID string, endTime time.Time) (models.Listing, error) {
	const op = "Open"
	listing, ok := e.store.Get(listingID)
	if !ok {
		return models.Listing{}, fmt.Errorf("[%s] %w: %s", op, ErrNoAuction, listingID)
	}

	auction := models.AuctionState{
		Enabled:    true,
		StartTime:  e.now(),
		EndTime:    endTime,
		CurrentBid: int64(openingRatio * float64(listing.Price)),
		Bids:       []models.BidRecord{},
	}
	e.store.Mutate(listingID, store.Patch{Auction: &auction})

	listing, _ = e.store.Get(listingID)
	e.logger.Info("auction opened",
		slog.String("listingID", listingID),
		slog.Int64("openingBid", auction.CurrentBid),
		slog.Time("endTime", endTime))
	return listing, nil
}

// MinimumNextBid 推導下一次出價的最低金額：ceil(currentBid × 1.05)。
// 永遠即時推導、不儲存，避免儲存值與顯示值出現偏差。
func MinimumNextBid(auction *models.AuctionState) int64 {
	return int64(math.Ceil(float64(auction.CurrentBid) * minIncrementRatio))
}

// Remaining 回傳拍賣剩餘時間，已結束時為零
func Remaining(auction *models.AuctionState, now time.Time) time.Duration {
	if auction.Ended(now) {
		return 0
	}
	return auction.EndTime.Sub(now)
}

// PlaceBid 驗證並套用一筆出價。
// 金額低於最低加價門檻回傳 ErrInvalidBid；拍賣已結束回傳
// ErrAuctionEnded，兩者都不會改動任何狀態。成功時把出價
// 紀錄插到歷史最前端、更新目前價與最高出價者，並透過 store
// 同步通知訂閱者，再廣播 BidEvent 與寫入通知收件匣。
func (e *Engine) PlaceBid(listingID string, amount int64, bidder string) (models.Listing, error) {
	const op = "PlaceBid"

	listing, ok := e.store.Get(listingID)
	if !ok || listing.Auction == nil || !listing.Auction.Enabled {
		return models.Listing{}, fmt.Errorf("[%s] %w: %s", op, ErrNoAuction, listingID)
	}
	auction := listing.Auction

	now := e.now()
	if auction.Ended(now) {
		return models.Listing{}, fmt.Errorf("[%s] %w: %s", op, ErrAuctionEnded, listingID)
	}
	if minimum := MinimumNextBid(auction); amount < minimum {
		return models.Listing{}, fmt.Errorf("[%s] %w: offered %d, minimum %d", op, ErrInvalidBid, amount, minimum)
	}

	record := models.BidRecord{Amount: amount, Bidder: bidder, Time: now}
	updated := models.AuctionState{
		Enabled:       true,
		StartTime:     auction.StartTime,
		EndTime:       auction.EndTime, // 出價不延長拍賣，沒有 anti-sniping
		CurrentBid:    amount,
		HighestBidder: bidder,
		Bids:          append([]models.BidRecord{record}, auction.Bids...),
	}
	e.store.Mutate(listingID, store.Patch{Auction: &updated})

	e.logger.Info("higher bid occurs",
		slog.String("listingID", listingID),
		slog.String("bidder", bidder),
		slog.Int64("bid", amount))

	event := BidEvent{ListingID: listingID, Amount: amount, Bidder: bidder, Time: now}
	if e.broker != nil {
		if err := e.broker.Publish(listingID, event); err != nil {
			e.logger.Warn("fail to broadcast bid event", slog.Any("error", err))
		}
	}
	if e.dispatcher != nil {
		e.dispatcher.Add(models.NotificationBidPlaced, map[string]any{
			"listingId": listingID,
			"amount":    amount,
			"bidder":    bidder,
		})
	}

	result, _ := e.store.Get(listingID)
	return result, nil
}
