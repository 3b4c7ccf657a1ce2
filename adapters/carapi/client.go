// Package carapi 是外部車輛 API 的 HTTP 客戶端。
// 回應必須是 {"data": [...]} 形狀；任何取得或解碼失敗都會
// 降級為最後一次成功的快照，不會把錯誤丟回呼叫端。
package carapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ErrMalformedResponse 表示回應不是預期的 {"data": [...]} 形狀
var ErrMalformedResponse = errors.New("malformed car api response")

// ErrNoSnapshot 表示取得失敗且沒有任何快照可以降級
var ErrNoSnapshot = errors.New("no cached snapshot available")

// Vehicle 是外部 API 回傳的單筆車輛資料
type Vehicle struct {
	ID       string `json:"id"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Price    int64  `json:"price"`
	Mileage  int    `json:"mileage"`
	City     string `json:"city"`
	Fuel     string `json:"fuel"`
	ImageURL string `json:"imageUrl"`
}

type envelope struct {
	Data []Vehicle `json:"data"`
}

// Result 是一次 Fetch 的結果。
// Degraded 為 true 代表這批資料來自快取而非本次請求。
type Result struct {
	Vehicles []Vehicle
	Degraded bool
}

// Client 以固定逾時的 http.Client 呼叫外部車輛 API，
// 並保存最後一次成功的回應作為降級快照
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.RWMutex
	snapshot []Vehicle
}

// Option 用於調整 Client 的建構
type Option func(*Client)

// WithHTTPClient 讓測試注入自訂的 http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithStaticSnapshot 預載一份靜態快照，讓首次請求失敗時也有資料可退
func WithStaticSnapshot(vehicles []Vehicle) Option {
	return func(c *Client) {
		c.snapshot = append([]Vehicle{}, vehicles...)
	}
}

func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("caller", "CarAPIClient")),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch 取得最新的車輛清單。
// 請求或解碼失敗時改回傳快取的快照並標記 Degraded；
// 沒有快照可退時才回傳 ErrNoSnapshot。
func (c *Client) Fetch(ctx context.Context) (Result, error) {
	const op = "Fetch"
	vehicles, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("fail to fetch vehicles, fallback to snapshot", slog.Any("error", err))
		c.mu.RLock()
		cached := c.snapshot
		c.mu.RUnlock()
		if cached == nil {
			return Result{}, fmt.Errorf("[%s] %w", op, ErrNoSnapshot)
		}
		return Result{Vehicles: append([]Vehicle{}, cached...), Degraded: true}, nil
	}

	c.mu.Lock()
	c.snapshot = vehicles
	c.mu.Unlock()
	return Result{Vehicles: append([]Vehicle{}, vehicles...)}, nil
}

func (c *Client) fetch(ctx context.Context) ([]Vehicle, error) {
	const op = "fetch"
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/vehicles", nil)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create request, err=%w", op, err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to send request, err=%w", op, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[%s] Unexpected status code %d", op, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to read response, err=%w", op, err)
	}

	// 只做一次型別化解碼，形狀不符一律視為格式錯誤
	var parsed envelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("[%s] %w: %s", op, ErrMalformedResponse, err)
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("[%s] %w: missing data field", op, ErrMalformedResponse)
	}
	return parsed.Data, nil
}
