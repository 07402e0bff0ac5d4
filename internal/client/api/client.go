package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/posync/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI описывает вызовы сервера синхронизации
type ClientAPI interface {
	// Push отправляет пакет событий одного устройства
	Push(ctx context.Context, accessToken string, req api.PushRequest) (*api.PushResponse, error)
	// Pull получает события магазина после серверного номера since
	Pull(ctx context.Context, accessToken string, since int64, limit int) (*api.PullResponse, error)
	// EntityHistory получает все принятые события сущности
	EntityHistory(ctx context.Context, accessToken, entityType, entityID string) (*api.EntityHistoryResponse, error)
	// ResolveConflict подтверждает разрешение конфликта
	ResolveConflict(ctx context.Context, accessToken, conflictID string, req api.ResolveConflictRequest) (*api.ResolveConflictResponse, error)
	// Health проверяет доступность сервера
	Health(ctx context.Context) (*api.HealthResponse, error)
}

var _ ClientAPI = (*Client)(nil)

// TransportError описывает неудачный вызов сервера.
// StatusCode равен 0, если ответ не был получен.
type TransportError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient сообщает, имеет ли смысл повторить вызов позже:
// сетевые ошибки, 401/403/408/429 и 5xx.
func (e *TransportError) IsTransient() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusUnauthorized,
		e.StatusCode == http.StatusForbidden,
		e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// IsValidation сообщает, отклонил ли сервер весь запрос как невалидный (400/422).
func (e *TransportError) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

// AsTransportError извлекает TransportError из цепочки ошибок
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// BaseURL возвращает адрес сервера
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Push отправляет пакет событий
func (c *Client) Push(ctx context.Context, accessToken string, req api.PushRequest) (*api.PushResponse, error) {
	var resp api.PushResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/sync/push", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	return &resp, nil
}

// Pull получает события после since
func (c *Client) Pull(ctx context.Context, accessToken string, since int64, limit int) (*api.PullResponse, error) {
	query := url.Values{}
	query.Set("since", strconv.FormatInt(since, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp api.PullResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/sync/pull?"+query.Encode(), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	return &resp, nil
}

// EntityHistory получает историю сущности
func (c *Client) EntityHistory(ctx context.Context, accessToken, entityType, entityID string) (*api.EntityHistoryResponse, error) {
	path := fmt.Sprintf("/api/v1/sync/entities/%s/%s", url.PathEscape(entityType), url.PathEscape(entityID))

	var resp api.EntityHistoryResponse
	if err := c.doRequest(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("entity history request failed: %w", err)
	}
	return &resp, nil
}

// ResolveConflict подтверждает разрешение конфликта на сервере
func (c *Client) ResolveConflict(ctx context.Context, accessToken, conflictID string, req api.ResolveConflictRequest) (*api.ResolveConflictResponse, error) {
	path := fmt.Sprintf("/api/v1/conflicts/%s/resolve", url.PathEscape(conflictID))

	var resp api.ResolveConflictResponse
	if err := c.doRequest(ctx, http.MethodPost, path, accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("resolve conflict request failed: %w", err)
	}
	return &resp, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", "", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Отмена контекста не является сетевой ошибкой
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		te := &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d", resp.StatusCode),
		}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			te.Message = errResp.Message
			if te.Message == "" {
				te.Message = errResp.Error
			}
		}
		return te
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	return nil
}
