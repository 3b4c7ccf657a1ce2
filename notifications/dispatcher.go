// Package notifications 提供一個有上限的行程內通知收件匣。
// 除了行程記憶體之外沒有任何投遞保證，取得最新狀態是呼叫端的
// 責任：輪詢 List 或透過 broker 訂閱。
package notifications

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shehrozeikram/CarWheels-sub000/adapters/events"
	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// DefaultCap 是收件匣的預設容量，超過時淘汰最舊的一則
const DefaultCap = 50

// Topic 是通知事件在 broker 上的主題名稱
const Topic = "notifications"

// Dispatcher 維護一個最新在前、有容量上限的通知列表
type Dispatcher struct {
	mu     sync.RWMutex
	items  []models.Notification
	cap    int
	broker events.IBroker[models.Notification]
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Dispatcher)

// WithCap 覆寫收件匣容量
func WithCap(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.cap = n
		}
	}
}

// WithBroker 讓每則新通知同時廣播到 broker 的 notifications 主題
func WithBroker(broker events.IBroker[models.Notification]) Option {
	return func(d *Dispatcher) {
		d.broker = broker
	}
}

// WithClock 讓測試注入固定時鐘
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func New(logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		cap:    DefaultCap,
		now:    time.Now,
		logger: logger.With(slog.String("caller", "NotificationDispatcher")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add 建立一則未讀通知插入列表最前端，超過容量時淘汰最舊的一則
func (d *Dispatcher) Add(kind models.NotificationKind, payload map[string]any) models.Notification {
	notification := models.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: d.now(),
		Read:      false,
	}

	d.mu.Lock()
	d.items = append([]models.Notification{notification}, d.items...)
	if len(d.items) > d.cap {
		d.items = d.items[:d.cap]
	}
	d.mu.Unlock()

	if d.broker != nil {
		if err := d.broker.Publish(Topic, notification); err != nil {
			d.logger.Warn("fail to broadcast notification", slog.Any("error", err))
		}
	}
	return notification
}

// List 回傳目前收件匣的快照，最新在前
func (d *Dispatcher) List() []models.Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snapshot := make([]models.Notification, len(d.items))
	copy(snapshot, d.items)
	return snapshot
}

// Unread 回傳未讀數量
func (d *Dispatcher) Unread() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	count := 0
	for _, n := range d.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead 將指定通知標為已讀，未知 ID 為 no-op
func (d *Dispatcher) MarkRead(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.items {
		if d.items[i].ID == id {
			d.items[i].Read = true
			return
		}
	}
}

// MarkAllRead 將所有通知標為已讀
func (d *Dispatcher) MarkAllRead() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.items {
		d.items[i].Read = true
	}
}

// RemoveAt 移除指定位置的通知，超出範圍為 no-op
func (d *Dispatcher) RemoveAt(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.items) {
		return
	}
	d.items = append(d.items[:index], d.items[index+1:]...)
}

// ClearAll 清空收件匣
func (d *Dispatcher) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = nil
}
