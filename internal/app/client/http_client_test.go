package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logisync/internal/app/client/config"
	"logisync/internal/domain/cache"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
)

// fakeERP — тестовый сервер ERP. Повторяет контракт реального API:
// health, вход, доменные эндпоинты и справочники.
type fakeERP struct {
	router   chi.Router
	requests []string // метод + путь в порядке поступления
	tokens   []string
	failPath string // путь, на котором сервер отвечает 500
}

func newFakeERP() *fakeERP {
	erp := &fakeERP{router: chi.NewRouter()}

	erp.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			erp.requests = append(erp.requests, r.Method+" "+r.URL.Path)
			erp.tokens = append(erp.tokens, r.Header.Get("Authorization"))
			if erp.failPath != "" && strings.HasPrefix(r.URL.Path, erp.failPath) {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "внутренняя ошибка"})
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	erp.router.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	erp.router.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "неверные учетные данные"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_id": 7, "email": req.Email, "token": "erp-token",
		})
	})

	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}
	erp.router.Post("/api/wms/receipts", ok)
	erp.router.Post("/api/wms/shipments", ok)
	erp.router.Post("/api/tms/deliveries", ok)
	erp.router.Put("/api/wms/receipts/{id}", ok)
	erp.router.Delete("/api/wms/receipts/{id}", ok)

	erp.router.Get("/api/cache/{key}", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		_, _ = w.Write([]byte(`[{"id":1,"source":"` + key + `"}]`))
	})

	return erp
}

func newTestClient(t *testing.T, erp *fakeERP) *httpClient {
	t.Helper()

	srv := httptest.NewServer(erp.router)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Env:           config.EnvLocal,
		ServerAddress: strings.TrimPrefix(srv.URL, "http://"),
	}

	client, err := NewHTTPClient(cfg, testLogger())
	require.NoError(t, err, "Ошибка создания HTTP клиента")
	return client
}

func TestHTTPClientHealthCheck(t *testing.T) {
	erp := newFakeERP()
	client := newTestClient(t, erp)

	require.NoError(t, client.HealthCheck(context.Background()))

	erp.failPath = "/api/health"
	assert.Error(t, client.HealthCheck(context.Background()), "Ошибка сервера должна означать недоступность")
}

func TestHTTPClientLogin(t *testing.T) {
	erp := newFakeERP()
	client := newTestClient(t, erp)

	sess, err := client.Login(context.Background(), "ivanov@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, 7, sess.UserID)
	assert.Equal(t, "erp-token", sess.Token)
	assert.True(t, sess.Active)
	assert.Equal(t, "erp-token", client.token, "Токен должен применяться к последующим запросам")

	_, err = client.Login(context.Background(), "ivanov@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "неверные учетные данные", "Текст ошибки сервера должен доходить до клиента")
}

func TestHTTPClientDispatchOperation(t *testing.T) {
	erp := newFakeERP()
	client := newTestClient(t, erp)
	client.SetToken("erp-token")

	tests := []struct {
		name    string
		op      *operation.PendingOperation
		wantReq string
	}{
		{
			name: "create POST на коллекцию",
			op: &operation.PendingOperation{
				ID: "op-1", Kind: operation.KindCreate, Resource: "wms/receipts",
				Payload: []byte(`{"number":"ПР-001"}`),
			},
			wantReq: "POST /api/wms/receipts",
		},
		{
			name: "update PUT на сущность",
			op: &operation.PendingOperation{
				ID: "op-2", Kind: operation.KindUpdate, Resource: "wms/receipts",
				Payload: []byte(`{"id":42,"number":"ПР-001"}`),
			},
			wantReq: "PUT /api/wms/receipts/42",
		},
		{
			name: "delete DELETE на сущность",
			op: &operation.PendingOperation{
				ID: "op-3", Kind: operation.KindDelete, Resource: "wms/receipts",
				Payload: []byte(`{"id":42}`),
			},
			wantReq: "DELETE /api/wms/receipts/42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := len(erp.requests)
			require.NoError(t, client.DispatchOperation(context.Background(), tt.op))
			require.Greater(t, len(erp.requests), start)
			assert.Equal(t, tt.wantReq, erp.requests[start])
			assert.Equal(t, "Bearer erp-token", erp.tokens[start], "Запрос должен нести токен сессии")
		})
	}
}

func TestHTTPClientDispatchInvalid(t *testing.T) {
	erp := newFakeERP()
	client := newTestClient(t, erp)

	err := client.DispatchOperation(context.Background(), &operation.PendingOperation{
		ID: "op-1", Kind: operation.Kind("merge"), Resource: "wms/receipts", Payload: []byte(`{}`),
	})
	require.Error(t, err, "Неизвестный вид операции не должен отправляться")
	assert.Empty(t, erp.requests, "До сервера запрос дойти не должен")

	err = client.DispatchOperation(context.Background(), &operation.PendingOperation{
		ID: "op-2", Kind: operation.KindUpdate, Resource: "wms/receipts", Payload: []byte(`{"number":"без id"}`),
	})
	assert.ErrorIs(t, err, operation.ErrMissingID)
}

func TestHTTPClientDomainEndpoints(t *testing.T) {
	erp := newFakeERP()
	client := newTestClient(t, erp)

	require.NoError(t, client.CreateWarehouseOperation(context.Background(), &warehouse.Operation{
		ID: "wh-1", Type: warehouse.TypeReceipt, Payload: []byte(`{"number":"ПР-001"}`),
	}))
	require.NoError(t, client.CreateTransportOperation(context.Background(), &transport.Operation{
		ID: "tms-1", Type: transport.TypeDelivery, Payload: []byte(`{"route_id":3}`),
	}))

	assert.Equal(t, []string{"POST /api/wms/receipts", "POST /api/tms/deliveries"}, erp.requests)
}

func TestHTTPClientFetchReference(t *testing.T) {
	erp := newFakeERP()
	client := newTestClient(t, erp)

	data, err := client.FetchReference(context.Background(), cache.KeyProducts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"source":"products"}]`, string(data))

	_, err = client.FetchReference(context.Background(), cache.Key("unknown"))
	require.Error(t, err, "Неизвестный справочник не должен запрашиваться")
}

func TestHTTPClientServerError(t *testing.T) {
	erp := newFakeERP()
	erp.failPath = "/api/wms"
	client := newTestClient(t, erp)

	err := client.CreateWarehouseOperation(context.Background(), &warehouse.Operation{
		ID: "wh-1", Type: warehouse.TypeReceipt, Payload: []byte(`{}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "внутренняя ошибка")
}

func TestHTTPClientTimeout(t *testing.T) {
	erp := newFakeERP()
	client := newTestClient(t, erp)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	err := client.HealthCheck(ctx)
	assert.Error(t, err, "Истекший контекст должен прерывать запрос")
}
