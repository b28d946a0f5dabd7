package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// InitTermsPath эндпоинт инициализации сессии
	InitTermsPath = "/api/session/init-terms"
	// ResearchAndMatchPath эндпоинт ранжирования
	ResearchAndMatchPath = "/api/research-and-match"
)

// Client HTTP-клиент сервиса ранжирования
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientConfig конфигурация клиента
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit rate.Limit
	Burst     int
}

// NewClient создает новый клиент сервиса ранжирования
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8790"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = rate.Every(100 * time.Millisecond)
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(config.RateLimit, config.Burst),
	}
}

// InitTerms отправляет полный список терминов для построения индекса.
// Успехом считается только подтверждение ok в теле ответа.
func (c *Client) InitTerms(ctx context.Context, terms []string) error {
	var resp InitTermsResponse
	if err := c.post(ctx, InitTermsPath, InitTermsRequest{Terms: terms}, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("init-terms rejected by server (term_count=%d)", resp.TermCount)
	}
	return nil
}

// ResearchAndMatch запрашивает ранжирование кандидатов для значения
func (c *Client) ResearchAndMatch(ctx context.Context, req RankRequest) (*RankResponse, error) {
	var resp RankResponse
	if err := c.post(ctx, ResearchAndMatchPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post выполняет POST запрос с JSON телом
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Тело ошибки читаем ограниченно, только для диагностики
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
