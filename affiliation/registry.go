// Package affiliation 管理組織與使用者的認證徽章。
// 組織註冊後即為 verified，使用者透過 CreateAffiliation
// 綁定到單一組織並取得 AFFILIATED 徽章。
package affiliation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// ErrOrgNotFound 表示指定的組織不存在
var ErrOrgNotFound = errors.New("organization not found")

// Subscriber 於註冊表變動時收到最新的組織快照
type Subscriber func(snapshot []models.Organization)

// Registry 保存組織與使用者關聯，並以和 ListingStore
// 相同的訂閱模型對外同步快照。狀態僅存在於行程記憶體。
type Registry struct {
	mu           sync.RWMutex
	orgs         []models.Organization // 依註冊順序排列
	affiliations map[string]models.Affiliation
	subscribers  map[uint64]Subscriber
	nextToken    uint64
	now          func() time.Time
	logger       *slog.Logger
}

// Option 用於調整 Registry 的建構
type Option func(*Registry)

// WithClock 讓測試注入固定時鐘
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func New(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	registry := &Registry{
		affiliations: map[string]models.Affiliation{},
		subscribers:  map[uint64]Subscriber{},
		now:          time.Now,
		logger:       logger.With(slog.String("caller", "AffiliationRegistry")),
	}
	for _, opt := range opts {
		opt(registry)
	}
	return registry
}

// RegisterOrganization 建立一個新組織。
// 狀態一律為 verified，徽章為 ORGANIZATION。
func (r *Registry) RegisterOrganization(name string) models.Organization {
	org := models.Organization{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    models.OrgStatusVerified,
		Badge:     models.BadgeOrganization,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.orgs = append(r.orgs, org)
	r.mu.Unlock()

	r.logger.Info("organization registered",
		slog.String("orgID", org.ID),
		slog.String("name", name))
	r.notify()
	return org
}

// Organizations 回傳依註冊順序排列的組織快照
func (r *Registry) Organizations() []models.Organization {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Organization{}, r.orgs...)
}

// GetOrganization 依 id 取得組織
func (r *Registry) GetOrganization(orgID string) (models.Organization, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, org := range r.orgs {
		if org.ID == orgID {
			return org, true
		}
	}
	return models.Organization{}, false
}

// CreateAffiliation 把使用者綁定到組織並授予 AFFILIATED 徽章。
// 組織不存在時回傳 ErrOrgNotFound；一個使用者只能屬於一個
// 組織，重複呼叫會覆蓋先前的關聯。
func (r *Registry) CreateAffiliation(userID, orgID, title string) (models.Affiliation, error) {
	const op = "CreateAffiliation"
	if _, ok := r.GetOrganization(orgID); !ok {
		return models.Affiliation{}, fmt.Errorf("[%s] %w: %s", op, ErrOrgNotFound, orgID)
	}

	affiliation := models.Affiliation{
		UserID:    userID,
		OrgID:     orgID,
		Badge:     models.BadgeAffiliated,
		Title:     title,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.affiliations[userID] = affiliation
	r.mu.Unlock()

	r.logger.Info("affiliation created",
		slog.String("userID", userID),
		slog.String("orgID", orgID))
	r.notify()
	return affiliation, nil
}

// UserAffiliation 回傳使用者目前的關聯，不存在時為 nil
func (r *Registry) UserAffiliation(userID string) *models.Affiliation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	affiliation, ok := r.affiliations[userID]
	if !ok {
		return nil
	}
	return &affiliation
}

// UserBadge 回傳使用者的徽章，沒有關聯時為 nil
func (r *Registry) UserBadge(userID string) *models.BadgeType {
	affiliation := r.UserAffiliation(userID)
	if affiliation == nil {
		return nil
	}
	badge := affiliation.Badge
	return &badge
}

// RemoveAffiliation 解除使用者的關聯，不存在時靜默略過
func (r *Registry) RemoveAffiliation(userID string) {
	r.mu.Lock()
	_, ok := r.affiliations[userID]
	delete(r.affiliations, userID)
	r.mu.Unlock()
	if ok {
		r.notify()
	}
}

// CleanupDuplicateOrganizations 以名稱完全相符為準移除重複的
// 組織，保留最早註冊的那一筆。回傳移除的數量。
func (r *Registry) CleanupDuplicateOrganizations() int {
	r.mu.Lock()
	seen := map[string]bool{}
	kept := make([]models.Organization, 0, len(r.orgs))
	for _, org := range r.orgs {
		if seen[org.Name] {
			continue
		}
		seen[org.Name] = true
		kept = append(kept, org)
	}
	removed := len(r.orgs) - len(kept)
	r.orgs = kept
	r.mu.Unlock()

	if removed > 0 {
		r.logger.Info("duplicate organizations removed", slog.Int("count", removed))
		r.notify()
	}
	return removed
}

// Subscribe 註冊一個快照訂閱者，回傳對應的取消函式
func (r *Registry) Subscribe(subscriber Subscriber) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token := r.nextToken
	r.nextToken++
	r.subscribers[token] = subscriber
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, token)
	}
}

// notify 在鎖外同步呼叫所有訂閱者，避免回呼再進入註冊表時死鎖
func (r *Registry) notify() {
	r.mu.RLock()
	snapshot := append([]models.Organization{}, r.orgs...)
	callbacks := make([]Subscriber, 0, len(r.subscribers))
	for _, subscriber := range r.subscribers {
		callbacks = append(callbacks, subscriber)
	}
	r.mu.RUnlock()

	for _, callback := range callbacks {
		callback(append([]models.Organization{}, snapshot...))
	}
}
