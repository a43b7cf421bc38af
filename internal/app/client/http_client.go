package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"logisync/internal/app/client/config"
	"logisync/internal/domain/cache"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/session"
	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
)

// RemoteAPI — контракт удаленного ERP API, который потребляет движок
// синхронизации. Сервер — внешний коллаборатор; здесь только клиент.
type RemoteAPI interface {
	HealthCheck(ctx context.Context) error
	Login(ctx context.Context, email, password string) (*session.UserSession, error)
	SetToken(token string)
	DispatchOperation(ctx context.Context, op *operation.PendingOperation) error
	CreateWarehouseOperation(ctx context.Context, op *warehouse.Operation) error
	CreateTransportOperation(ctx context.Context, op *transport.Operation) error
	FetchReference(ctx context.Context, key cache.Key) (json.RawMessage, error)
}

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  false,
			DisableKeepAlives:   false,
			MaxIdleConnsPerHost: 10,
		},
	}

	// Определяем протокол
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	baseURL := scheme + cfg.ServerAddress

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   baseURL,
		userAgent: "LogiSync-Client/1.0",
	}, nil
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	return nil
}

// Login выполняет вход и возвращает сессию с токеном.
func (h *httpClient) Login(ctx context.Context, email, password string) (*session.UserSession, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{
		Email:    email,
		Password: password,
	}

	resp, err := h.doRequest(ctx, "POST", "/api/auth/login", req)
	if err != nil {
		return nil, err
	}

	var loginResp struct {
		UserID int    `json:"user_id"`
		Email  string `json:"email"`
		Token  string `json:"token"`
	}

	if err := h.parseResponse(resp, &loginResp); err != nil {
		return nil, err
	}

	h.SetToken(loginResp.Token)

	return &session.UserSession{
		UserID:    loginResp.UserID,
		Email:     loginResp.Email,
		Token:     loginResp.Token,
		LastLogin: time.Now(),
		Active:    true,
	}, nil
}

// DispatchOperation отправляет операцию из общей очереди. Вид
// операции однозначно определяет метод и путь; неизвестный вид —
// ошибка, а не молчаливый пропуск.
func (h *httpClient) DispatchOperation(ctx context.Context, op *operation.PendingOperation) error {
	if err := op.Kind.Validate(); err != nil {
		return err
	}

	var path string
	var body interface{}

	switch op.Kind {
	case operation.KindCreate:
		path = "/api/" + op.Resource
		body = op.Payload
	case operation.KindUpdate:
		id, err := operation.EntityID(op.Payload)
		if err != nil {
			return err
		}
		path = "/api/" + op.Resource + "/" + id
		body = op.Payload
	case operation.KindDelete:
		id, err := operation.EntityID(op.Payload)
		if err != nil {
			return err
		}
		path = "/api/" + op.Resource + "/" + id
	}

	resp, err := h.doRequest(ctx, op.Kind.Method(), path, body)
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// CreateWarehouseOperation отправляет складскую операцию на эндпоинт ее типа.
func (h *httpClient) CreateWarehouseOperation(ctx context.Context, op *warehouse.Operation) error {
	if err := op.Type.Validate(); err != nil {
		return err
	}

	resp, err := h.doRequest(ctx, "POST", op.Type.Endpoint(), op.Payload)
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// CreateTransportOperation отправляет транспортную операцию на эндпоинт ее типа.
func (h *httpClient) CreateTransportOperation(ctx context.Context, op *transport.Operation) error {
	if err := op.Type.Validate(); err != nil {
		return err
	}

	resp, err := h.doRequest(ctx, "POST", op.Type.Endpoint(), op.Payload)
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// FetchReference получает справочник с сервера для локального кеша.
func (c *httpClient) FetchReference(ctx context.Context, key cache.Key) (json.RawMessage, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+key.Endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status: %d", response.StatusCode)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return json.RawMessage(data), nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("ошибка сервера: %s", errResp.Error)
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
