// Package store 保存整個行程生命週期內的刊登狀態。
// 所有狀態只存在於記憶體中，冷啟動時重置。
package store

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// Subscriber 在分類發生異動時收到該分類的完整快照，而不是差異
type Subscriber func(snapshot []models.Listing)

// Patch 表示對單一刊登的部份更新，nil 欄位代表不變更
type Patch struct {
	Title       *string
	Description *string
	Price       *int64
	Location    *string
	ImageURL    *string
	Status      *models.ListingStatus
	IsNew       *bool
	IsFeatured  *bool
	IsCertified *bool
	IsManaged   *bool
	Inspected   *bool
	Auction     *models.AuctionState
}

// ListingStore 以分類為單位保存刊登，並在每次異動後同步通知訂閱者。
// 同一個 ID 在它所屬的分類內是唯一的。
type ListingStore struct {
	mu          sync.RWMutex
	buckets     map[string][]models.Listing
	categoryOf  map[string][]string // listing id -> 所屬分類（促銷分類會造成重複刊登）
	subscribers map[string]map[uint64]Subscriber
	nextToken   uint64
	logger      *slog.Logger
}

func New(logger *slog.Logger) *ListingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingStore{
		buckets:     make(map[string][]models.Listing),
		categoryOf:  make(map[string][]string),
		subscribers: make(map[string]map[uint64]Subscriber),
		logger:      logger.With(slog.String("caller", "ListingStore")),
	}
}

// Initialize 將種子資料合併進尚未存在的分類。
// 已存在的分類完全不受影響，因此重複呼叫是冪等的。
func (s *ListingStore) Initialize(seed map[string][]models.Listing) {
	var touched []string

	s.mu.Lock()
	for category, listings := range seed {
		if _, exists := s.buckets[category]; exists {
			continue
		}
		bucket := make([]models.Listing, 0, len(listings))
		for _, listing := range listings {
			listing.Category = category
			if listing.Status == "" {
				listing.Status = models.ListingActive
			}
			bucket = append(bucket, listing.Clone())
			if !lo.Contains(s.categoryOf[listing.ID], category) {
				s.categoryOf[listing.ID] = append(s.categoryOf[listing.ID], category)
			}
		}
		s.buckets[category] = bucket
		touched = append(touched, category)
	}
	s.mu.Unlock()

	for _, category := range touched {
		s.notify(category)
	}
}

// GetForCategory 回傳分類的快照；未知分類回傳空切片。
func (s *ListingStore) GetForCategory(category string) []models.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(category)
}

// Categories 回傳所有分類名稱，排序後回傳
func (s *ListingStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := lo.Keys(s.buckets)
	sort.Strings(categories)
	return categories
}

// Get 依 ID 取得單一刊登的快照
func (s *ListingStore) Get(id string) (models.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, category := range s.categoryOf[id] {
		for _, listing := range s.buckets[category] {
			if listing.ID == id {
				return listing.Clone(), true
			}
		}
	}
	return models.Listing{}, false
}

// Subscribe 註冊一個分類的監聽者，每次異動都會同步收到完整快照。
// 回傳的函式用於取消訂閱，消費端卸載時必須呼叫。
// 多個訂閱者的通知順序沒有保證。
func (s *ListingStore) Subscribe(category string, fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[category]; !ok {
		s.subscribers[category] = make(map[uint64]Subscriber)
	}
	token := s.nextToken
	s.nextToken++
	s.subscribers[category][token] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers[category], token)
		if len(s.subscribers[category]) == 0 {
			delete(s.subscribers, category)
		}
	}
}

// Mutate 套用部份更新後同步通知該分類的所有訂閱者。
// 未知的 ID 是容許的 no-op，不是錯誤。
// 同一個 ID 可能因促銷分類而出現在多個 bucket，
// 更新會套用到每一份拷貝，讓所有快照保持一致。
func (s *ListingStore) Mutate(id string, patch Patch) {
	s.mu.Lock()
	categories := s.categoryOf[id]
	if len(categories) == 0 {
		s.mu.Unlock()
		s.logger.Debug("mutate on unknown listing ignored", slog.String("listingID", id))
		return
	}
	for _, category := range categories {
		bucket := s.buckets[category]
		for i := range bucket {
			if bucket[i].ID == id {
				applyPatch(&bucket[i], patch)
				break
			}
		}
	}
	s.mu.Unlock()

	for _, category := range categories {
		s.notify(category)
	}
}

// MutateCategory 將同一份部份更新套用到分類內的每一筆刊登
func (s *ListingStore) MutateCategory(category string, patch Patch) {
	s.mu.Lock()
	bucket, ok := s.buckets[category]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("mutate on unknown category ignored", slog.String("category", category))
		return
	}
	for i := range bucket {
		applyPatch(&bucket[i], patch)
	}
	s.mu.Unlock()

	s.notify(category)
}

// Upsert 新增或覆寫一筆刊登並通知其分類
func (s *ListingStore) Upsert(listing models.Listing) {
	s.mu.Lock()
	if listing.Status == "" {
		listing.Status = models.ListingActive
	}
	category := listing.Category
	bucket := s.buckets[category]
	replaced := false
	for i := range bucket {
		if bucket[i].ID == listing.ID {
			bucket[i] = listing.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		s.buckets[category] = append(bucket, listing.Clone())
	}
	if !lo.Contains(s.categoryOf[listing.ID], category) {
		s.categoryOf[listing.ID] = append(s.categoryOf[listing.ID], category)
	}
	s.mu.Unlock()

	s.notify(category)
}

// Remove 將刊登標記為 removed（軟刪除），未知 ID 為 no-op
func (s *ListingStore) Remove(id string) {
	removed := models.ListingRemoved
	s.Mutate(id, Patch{Status: &removed})
}

// notify 在鎖外同步呼叫訂閱者，避免訂閱者回呼 store 時死鎖
func (s *ListingStore) notify(category string) {
	s.mu.RLock()
	snapshot := s.snapshotLocked(category)
	callbacks := lo.Values(s.subscribers[category])
	s.mu.RUnlock()

	for _, fn := range callbacks {
		fn(snapshot)
	}
}

func (s *ListingStore) snapshotLocked(category string) []models.Listing {
	bucket := s.buckets[category]
	snapshot := make([]models.Listing, 0, len(bucket))
	for _, listing := range bucket {
		snapshot = append(snapshot, listing.Clone())
	}
	return snapshot
}

func applyPatch(listing *models.Listing, patch Patch) {
	if patch.Title != nil {
		listing.Title = *patch.Title
	}
	if patch.Description != nil {
		listing.Description = *patch.Description
	}
	if patch.Price != nil {
		listing.Price = *patch.Price
		listing.PriceDisplay = models.FormatPKR(*patch.Price)
	}
	if patch.Location != nil {
		listing.Location = *patch.Location
	}
	if patch.ImageURL != nil {
		listing.ImageURL = *patch.ImageURL
	}
	if patch.Status != nil {
		listing.Status = *patch.Status
	}
	if patch.IsNew != nil {
		listing.IsNew = *patch.IsNew
	}
	if patch.IsFeatured != nil {
		listing.IsFeatured = *patch.IsFeatured
	}
	if patch.IsCertified != nil {
		listing.IsCertified = *patch.IsCertified
	}
	if patch.IsManaged != nil {
		listing.IsManaged = *patch.IsManaged
	}
	if patch.Inspected != nil {
		listing.Inspected = *patch.Inspected
	}
	if patch.Auction != nil {
		auction := *patch.Auction
		auction.Bids = append([]models.BidRecord(nil), patch.Auction.Bids...)
		listing.Auction = &auction
	}
}
