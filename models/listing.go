package models

import (
	"time"
)

// ListingStatus 代表刊登的生命週期狀態
type ListingStatus string

const (
	ListingActive  ListingStatus = "active"
	ListingRemoved ListingStatus = "removed"
)

// FuelType 代表車輛的燃料類型
type FuelType string

const (
	FuelPetrol FuelType = "Petrol"
	FuelDiesel FuelType = "Diesel"
	FuelHybrid FuelType = "Hybrid"
)

// Listing 代表一則車輛廣告
// 價格同時保存正規化數值與顯示字串，兩者由 FormatPKR/ParsePKR 維持一致
type Listing struct {
	ID           string        `json:"id"`
	Category     string        `json:"category"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Price        int64         `json:"price"`
	PriceDisplay string        `json:"priceDisplay"`
	Year         int           `json:"year"`
	Mileage      int           `json:"mileage"`
	Location     string        `json:"location"`
	FuelType     FuelType      `json:"fuelType"`
	ImageURL     string        `json:"imageUrl"`
	Seller       string        `json:"seller,omitempty"`
	Status       ListingStatus `json:"status"`

	IsNew       bool `json:"isNew"`
	IsFeatured  bool `json:"isFeatured"`
	IsCertified bool `json:"isCertified"`
	IsManaged   bool `json:"isManaged"`
	Inspected   bool `json:"inspected"`

	Auction *AuctionState `json:"auction,omitempty"`
}

// AuctionState 代表附加在刊登上的限時競標狀態
// EndTime 在建立時就固定，出價不會延長拍賣時間
type AuctionState struct {
	Enabled       bool        `json:"enabled"`
	StartTime     time.Time   `json:"startTime"`
	EndTime       time.Time   `json:"endTime"`
	CurrentBid    int64       `json:"currentBid"`
	HighestBidder string      `json:"highestBidder,omitempty"`
	Bids          []BidRecord `json:"bids"`
}

// BidRecord 代表一筆出價紀錄，Bids 以最新在前排序
type BidRecord struct {
	Amount int64     `json:"amount"`
	Bidder string    `json:"bidder"`
	Time   time.Time `json:"time"`
}

// Ended 回報拍賣在 now 時間點是否已經結束
func (a *AuctionState) Ended(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// Clone 回傳刊登的深拷貝，避免快照被呼叫端修改
func (l Listing) Clone() Listing {
	if l.Auction == nil {
		return l
	}
	auction := *l.Auction
	auction.Bids = make([]BidRecord, len(l.Auction.Bids))
	copy(auction.Bids, l.Auction.Bids)
	l.Auction = &auction
	return l
}
