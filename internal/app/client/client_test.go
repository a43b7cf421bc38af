package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logisync/internal/app/client/config"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/session"
	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
)

func newTestApp(t *testing.T) (*App, *fakeAPI) {
	t.Helper()

	storage := NewMemoryStorage()
	api := newFakeAPI()
	monitor := NewMonitor(&fakeProber{}, testLogger(), time.Hour)
	engine := NewSyncEngine(storage, api, monitor, testLogger(), DefaultSyncConfig())

	app := &App{
		config:   &config.Config{Env: config.EnvLocal, ServerAddress: "localhost:8080"},
		log:      testLogger(),
		api:      api,
		storage:  storage,
		monitor:  monitor,
		engine:   engine,
		snapshot: &OfflineSnapshot{},
	}
	engine.onCycleDone = app.refreshSnapshot
	app.refreshSnapshot()
	return app, api
}

func TestAppLoginLogout(t *testing.T) {
	app, _ := newTestApp(t)

	assert.False(t, app.IsAuthenticated())

	sess, err := app.Login(context.Background(), LoginRequest{
		Email: "ivanov@example.com", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, sess.UserID)
	assert.True(t, app.IsAuthenticated())

	// Сессия сохранена локально и переживет перезапуск
	stored, err := app.CurrentSession()
	require.NoError(t, err)
	assert.Equal(t, "test-token", stored.Token)

	require.NoError(t, app.Logout())
	assert.False(t, app.IsAuthenticated())
	_, err = app.CurrentSession()
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestAppOfflineWritesNeverTouchNetwork(t *testing.T) {
	app, api := newTestApp(t)
	_, err := app.Login(context.Background(), LoginRequest{Email: "ivanov@example.com", Password: "secret"})
	require.NoError(t, err)

	id, err := app.SaveOfflineReceipt(warehouse.ReceiptData{
		WarehouseID: 1,
		Number:      "ПР-001",
		Lines:       []warehouse.ItemLine{{ProductID: 101, Quantity: 10}},
		ReceivedAt:  time.Now(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = app.SaveOfflineShipment(warehouse.ShipmentData{WarehouseID: 1, Number: "ОТ-001"})
	require.NoError(t, err)
	_, err = app.SaveOfflineDelivery(transport.DeliveryData{RouteID: 3, CustomerID: 5, Status: "delivered"})
	require.NoError(t, err)

	// Запись всегда локальная: сеть не трогаем даже в онлайне
	assert.Zero(t, api.dispatchedCount())
	assert.Empty(t, api.whCreated)
	assert.Empty(t, api.tmsCreated)
}

func TestAppSnapshotGrouping(t *testing.T) {
	app, _ := newTestApp(t)
	_, err := app.Login(context.Background(), LoginRequest{Email: "ivanov@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = app.SaveOfflineReceipt(warehouse.ReceiptData{WarehouseID: 1, Number: "ПР-001"})
	require.NoError(t, err)
	_, err = app.SaveOfflineReceipt(warehouse.ReceiptData{WarehouseID: 1, Number: "ПР-002"})
	require.NoError(t, err)
	_, err = app.SaveOfflineShipment(warehouse.ShipmentData{WarehouseID: 1, Number: "ОТ-001"})
	require.NoError(t, err)
	_, err = app.SaveOfflineDelivery(transport.DeliveryData{RouteID: 3, Status: "delivered"})
	require.NoError(t, err)
	_, err = app.SaveOfflineOperation(operation.KindCreate, "wms/pick-lists", map[string]any{"order_id": 9})
	require.NoError(t, err)

	snap := app.Snapshot()
	assert.Len(t, snap.Receipts, 2)
	assert.Len(t, snap.Shipments, 1)
	assert.Len(t, snap.Deliveries, 1)
	assert.Equal(t, 1, snap.PendingCount)
	assert.Equal(t, 5, snap.TotalOperations())
}

func TestAppSaveOfflineOperationValidation(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := app.SaveOfflineOperation(operation.Kind("merge"), "wms/receipts", map[string]any{})
	assert.Error(t, err, "Неизвестный вид операции должен отклоняться")

	_, err = app.SaveOfflineOperation(operation.KindCreate, "", map[string]any{})
	assert.Error(t, err, "Пустой ресурс должен отклоняться")
}

func TestAppForceSyncRefreshesSnapshot(t *testing.T) {
	app, api := newTestApp(t)
	_, err := app.Login(context.Background(), LoginRequest{Email: "ivanov@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = app.SaveOfflineReceipt(warehouse.ReceiptData{WarehouseID: 1, Number: "ПР-001"})
	require.NoError(t, err)
	require.Equal(t, 1, app.Snapshot().TotalOperations())

	app.engine.isOnline = true
	result, err := app.ForceSync(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, 1, len(api.whCreated))
	assert.Zero(t, app.Snapshot().TotalOperations(), "После цикла снимок должен быть пуст")
	assert.False(t, app.Snapshot().LastSync.IsZero())
}

func TestAppClearOfflineData(t *testing.T) {
	app, _ := newTestApp(t)
	_, err := app.Login(context.Background(), LoginRequest{Email: "ivanov@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = app.SaveOfflineReceipt(warehouse.ReceiptData{WarehouseID: 1, Number: "ПР-001"})
	require.NoError(t, err)

	require.NoError(t, app.ClearOfflineData())
	assert.False(t, app.IsAuthenticated())
	assert.Zero(t, app.Snapshot().TotalOperations())
}
