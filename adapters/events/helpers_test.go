package events_test

import (
	"io"
	"log"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

// BidEvent 測試用的事件型別
type BidEvent struct {
	Amount int64  `json:"amount"`
	Bidder string `json:"bidder"`
}
