package pricingservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с PricingService
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента PricingService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetQuote запрашивает стоимость тренировки
func (c *Client) GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	url := fmt.Sprintf("%s/internal/pricing/quote", c.baseURL)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return nil, ErrQuoteNotFound
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	// Парсим ответ
	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &quote, nil
}

// GetQuoteWithGracefulDegradation запрашивает стоимость с graceful degradation
// При недоступности PricingService возвращает ErrServiceDegraded,
// что позволяет сервису использовать базовые цены
func (c *Client) GetQuoteWithGracefulDegradation(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	c.log.Info("Fetching quote for resource_class=%s resource_id=%d", req.ResourceClass, req.ResourceID)

	quote, err := c.GetQuote(ctx, req)
	if err != nil {
		// Отсутствие прайса - бизнес-ошибка, пробрасываем её дальше
		if err == ErrQuoteNotFound {
			c.log.Info("No quote found for resource_class=%s resource_id=%d", req.ResourceClass, req.ResourceID)
			return nil, err
		}

		// Для всех остальных ошибок (недоступность сервиса, timeout, ошибки парсинга и т.д.)
		// применяем graceful degradation - возвращаем ErrServiceDegraded с контекстом
		c.log.Error("PricingService unavailable, applying graceful degradation for resource_class=%s resource_id=%d: %v",
			req.ResourceClass, req.ResourceID, err)
		return nil, fmt.Errorf("%w: resource_class=%s, error=%v", ErrServiceDegraded, req.ResourceClass, err)
	}

	c.log.Info("Successfully fetched quote for resource_class=%s resource_id=%d: %.2f",
		req.ResourceClass, req.ResourceID, quote.Amount)
	return quote, nil
}
