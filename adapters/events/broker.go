package events

import (
	"context"
	"log/slog"
	"sync"
)

// broker 管理多個主題的訂閱與發布。
// 所有事件都先進入 Bus，再由單一 goroutine 依序廣播到各主題，
// 因此任何一個主題的訂閱者看到的事件順序都與發布順序一致。
type broker[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.RWMutex   // 保護 active 和 channels 的讀寫
	wg     sync.WaitGroup // 用於等待所有 goroutine 完成
	active bool           // 標記 broker 是否正在運作中

	bus      IBus[PublishRequest[T]] // 行程內的事件匯流排
	channels map[string]*Channel[T]  // 儲存所有活躍的主題
}

// NewBroker 建立一個新的事件代理。
func NewBroker[T any](logger *slog.Logger, opts ...BusOption) IBroker[T] {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &broker[T]{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With(slog.String("caller", "Broker")),
		channels: make(map[string]*Channel[T]),
		bus:      NewBus[PublishRequest[T]](opts...),
		active:   true,
	}
}

// Start 啟動事件代理，開始處理訊息的接收與廣播。
// 應在呼叫其他方法前先呼叫此方法。
func (b *broker[T]) Start() {
	b.bus.Start()

	// 啟動訊息處理的 goroutine
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range b.bus.Subscribe() {
			b.mu.RLock()
			if channel, ok := b.channels[msg.Topic]; ok {
				channel.Broadcast(msg.Message)
			}
			b.mu.RUnlock()
		}
	}()
}

// Done 停止事件代理的運作。
func (b *broker[T]) Done() {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}
	b.active = false
	b.mu.Unlock()

	// 先停掉匯流排與搬運 goroutine，期間不能持有鎖，
	// 否則搬運 goroutine 會在取得讀鎖時卡死
	b.cancel()
	b.bus.Close()
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, channel := range b.channels {
		channel.UnsubscribeAll()
	}
	clear(b.channels)
}

// Subscribe 訂閱指定的主題。
// 返回: 用於接收事件的唯讀通道，以及可能的錯誤
func (b *broker[T]) Subscribe(topic string) (<-chan T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return nil, context.Canceled
	}

	c, ok := b.channels[topic]
	if !ok {
		c = NewChannel[T](1).(*Channel[T])
		b.channels[topic] = c
	}
	return c.Subscribe(), nil
}

// Publish 發布事件到指定的主題。
func (b *broker[T]) Publish(topic string, data T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.active {
		return context.Canceled
	}

	return b.bus.Publish(PublishRequest[T]{
		Topic:   topic,
		Message: data,
	})
}

// Unsubscribe 取消訂閱指定的主題。
func (b *broker[T]) Unsubscribe(topic string, ch <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.channels[topic]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(b.channels, topic)
	}
}
