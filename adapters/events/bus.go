package events

import (
	"context"
	"errors"
	"sync"

	"log/slog"

	"github.com/smallnest/chanx"
)

// ErrBusClosed 表示匯流排已關閉
var ErrBusClosed = errors.New("bus is closed")

type busOptions struct {
	logger     *slog.Logger
	bufferSize int
}

type BusOption func(*busOptions)

// WithBusLogger 設置日誌記錄器
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(o *busOptions) {
		o.logger = logger
	}
}

// WithBusBufferSize 設置下游channel的緩衝大小
func WithBusBufferSize(size int) BusOption {
	return func(o *busOptions) {
		o.bufferSize = size
	}
}

// Bus 是行程內的事件匯流排。上游使用無上限的通道吸收突發流量，
// 發布端永遠不會因為下游消費太慢而被阻塞；下游是固定緩衝的通道，
// 由單一 goroutine 依序搬運，確保事件順序。
//
// 整個應用程式的狀態只存在於行程記憶體中，因此不需要任何跨節點
// 的訊息傳遞。
type Bus[T any] struct {
	upstream   *chanx.UnboundedChan[T]
	downStream chan T
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex // 保護 closed，Publish 可能與 Close 並行
	closed     bool
	logger     *slog.Logger
	options    busOptions
}

func NewBus[T any](opts ...BusOption) IBus[T] {
	// 默認選項
	options := busOptions{
		logger:     slog.Default(),
		bufferSize: 100,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Bus[T]{
		closed:  true,
		logger:  options.logger.With(slog.String("caller", "Bus")),
		options: options,
	}
}

func (b *Bus[T]) Start() {
	b.mu.Lock()
	if !b.closed {
		b.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.upstream = chanx.NewUnboundedChan[T](ctx, b.options.bufferSize)
	b.downStream = make(chan T, b.options.bufferSize)
	b.cancelFunc = cancel
	b.closed = false
	b.mu.Unlock()
	b.logger.Info("starting event bus")

	// 啟動搬運 goroutine
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.logger.Info("bus goroutine stopped")
		defer close(b.downStream)

		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-b.upstream.Out:
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case b.downStream <- data:
				}
			}
		}
	}()
}

// Subscribe 訂閱數據流
func (b *Bus[T]) Subscribe() <-chan T {
	return b.downStream
}

// Publish 發布數據到匯流排，如果匯流排已關閉則返回錯誤。
// 持有讀鎖直到送入上游，避免與 Close 交錯。
func (b *Bus[T]) Publish(data T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	b.upstream.In <- data
	return nil
}

// Close 關閉匯流排
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.logger.Info("closing event bus")
	b.closed = true
	b.cancelFunc()
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
}
