package events

// PublishRequest 表示一個發布請求，包含主題名稱和訊息。
type PublishRequest[T any] struct {
	Topic   string `json:"topic"`
	Message T      `json:"message"`
}

// IChannel 定義了單一主題的訂閱介面
type IChannel[T any] interface {
	// Subscribe 建立一個新的訂閱並返回接收訊息的通道
	Subscribe() <-chan T
	// Unsubscribe 取消指定通道的訂閱
	Unsubscribe(ch <-chan T)
	// UnsubscribeAll 取消所有訂閱
	UnsubscribeAll()
	// Broadcast 將訊息廣播給所有訂閱者
	Broadcast(message T)
	// IsIdle 檢查是否沒有訂閱者
	IsIdle() bool
}

// IBus 定義了行程內訊息匯流排的操作介面
type IBus[T any] interface {
	Start()
	Subscribe() <-chan T
	Publish(data T) error
	Close()
}

// IBroker 定義了事件代理的介面
type IBroker[T any] interface {
	// Start 啟動 Broker，開始處理訊息的接收與廣播。
	// 應在呼叫其他方法前先呼叫此方法。
	Start()
	// Done 停止 Broker，釋放所有資源。
	Done()
	// Subscribe 註冊並訂閱指定主題，返回一個新的唯讀通道。
	Subscribe(topic string) (<-chan T, error)
	// Publish 將資料推送到指定主題。
	Publish(topic string, data T) error
	// Unsubscribe 取消訂閱指定主題。
	Unsubscribe(topic string, ch <-chan T)
}
