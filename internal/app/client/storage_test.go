package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logisync/internal/domain/cache"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/session"
	"logisync/internal/domain/sync"
	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
)

// Контракт хранилища проверяется против обеих реализаций:
// SQLite и резервной in-memory.
func runStorageTests(t *testing.T, name string, open func(t *testing.T) Storage) {
	t.Run(name+"/Sessions", func(t *testing.T) { testSessions(t, open(t)) })
	t.Run(name+"/QueueFIFO", func(t *testing.T) { testQueueFIFO(t, open(t)) })
	t.Run(name+"/QueueStatus", func(t *testing.T) { testQueueStatus(t, open(t)) })
	t.Run(name+"/DomainOperations", func(t *testing.T) { testDomainOperations(t, open(t)) })
	t.Run(name+"/Cache", func(t *testing.T) { testCache(t, open(t)) })
	t.Run(name+"/Bookkeeping", func(t *testing.T) { testBookkeeping(t, open(t)) })
	t.Run(name+"/ClearCascade", func(t *testing.T) { testClearCascade(t, open(t)) })
}

func TestMemoryStorage(t *testing.T) {
	runStorageTests(t, "memory", func(t *testing.T) Storage {
		return NewMemoryStorage()
	})
}

func TestSQLiteStorage(t *testing.T) {
	runStorageTests(t, "sqlite", func(t *testing.T) Storage {
		path := filepath.Join(t.TempDir(), "offline.db")
		storage, err := NewSQLiteStorage(path)
		require.NoError(t, err, "Ошибка открытия SQLite хранилища")
		t.Cleanup(func() { _ = storage.Close() })
		return storage
	})
}

// Повторное открытие той же базы не должно ломаться на уже
// примененных миграциях и обязано видеть сохраненные данные.
func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offline.db")

	storage, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, storage.SaveUserSession(&session.UserSession{
		UserID:    7,
		Email:     "ivanov@example.com",
		Token:     "token-1",
		LastLogin: time.Now(),
	}))
	require.NoError(t, storage.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err, "Повторное открытие базы не должно возвращать ошибку")
	t.Cleanup(func() { _ = reopened.Close() })

	sess, err := reopened.LastUserSession()
	require.NoError(t, err)
	assert.Equal(t, 7, sess.UserID, "Сессия должна пережить переоткрытие базы")
}

func testSessions(t *testing.T, s Storage) {
	_, err := s.LastUserSession()
	assert.ErrorIs(t, err, session.ErrNotFound, "Ожидалась ошибка отсутствия сессии")

	require.NoError(t, s.SaveUserSession(&session.UserSession{
		UserID:    7,
		Email:     "ivanov@example.com",
		Token:     "token-1",
		LastLogin: time.Now(),
	}))

	sess, err := s.LastUserSession()
	require.NoError(t, err)
	assert.Equal(t, 7, sess.UserID)
	assert.Equal(t, "token-1", sess.Token)
	assert.True(t, sess.Active)

	// Повторный вход деактивирует прежнюю сессию
	require.NoError(t, s.SaveUserSession(&session.UserSession{
		UserID:    9,
		Email:     "petrov@example.com",
		Token:     "token-2",
		LastLogin: time.Now(),
	}))

	sess, err = s.LastUserSession()
	require.NoError(t, err)
	assert.Equal(t, 9, sess.UserID, "Активной должна быть последняя сессия")
}

func testQueueFIFO(t *testing.T, s Storage) {
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"op-1", "op-2", "op-3"} {
		require.NoError(t, s.AddPendingOperation(&operation.PendingOperation{
			ID:        id,
			Kind:      operation.KindCreate,
			Resource:  "wms/receipts",
			Payload:   []byte(`{"number":"ПР-001"}`),
			UserID:    7,
			Status:    operation.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	ops, err := s.PendingOperations()
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, "op-1", ops[0].ID, "Очередь должна отдаваться в порядке создания")
	assert.Equal(t, "op-2", ops[1].ID)
	assert.Equal(t, "op-3", ops[2].ID)
}

func testQueueStatus(t *testing.T, s Storage) {
	require.NoError(t, s.AddPendingOperation(&operation.PendingOperation{
		ID:        "op-1",
		Kind:      operation.KindCreate,
		Resource:  "wms/receipts",
		Payload:   []byte(`{}`),
		Status:    operation.StatusPending,
		CreatedAt: time.Now(),
	}))

	// Успешная отправка удаляет запись
	require.NoError(t, s.UpdateOperationStatus("op-1", operation.StatusCompleted, ""))
	count, err := s.CountPendingOperations()
	require.NoError(t, err)
	assert.Zero(t, count, "Завершенная операция должна быть удалена")

	// Повторное обновление несуществующей записи — ошибка
	err = s.UpdateOperationStatus("op-1", operation.StatusCompleted, "")
	assert.ErrorIs(t, err, operation.ErrNotFound)

	// Ошибка отправки оставляет запись в очереди с инкрементом попыток
	require.NoError(t, s.AddPendingOperation(&operation.PendingOperation{
		ID:        "op-2",
		Kind:      operation.KindUpdate,
		Resource:  "tms/deliveries",
		Payload:   []byte(`{"id":5}`),
		Status:    operation.StatusPending,
		CreatedAt: time.Now(),
	}))
	require.NoError(t, s.UpdateOperationStatus("op-2", operation.StatusFailed, "server error"))

	ops, err := s.PendingOperations()
	require.NoError(t, err)
	require.Len(t, ops, 1, "Неудачная операция остается в очереди")
	assert.Equal(t, operation.StatusFailed, ops[0].Status)
	assert.Equal(t, 1, ops[0].RetryCount)
	assert.Equal(t, "server error", ops[0].LastError)

	// Dead-letter скрывает запись из очереди, но не удаляет
	require.NoError(t, s.UpdateOperationStatus("op-2", operation.StatusDead, "server error"))
	ops, err = s.PendingOperations()
	require.NoError(t, err)
	assert.Empty(t, ops, "Dead-letter операции не должны попадать в очередь")

	count, err = s.CountPendingOperations()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testDomainOperations(t *testing.T, s Storage) {
	require.NoError(t, s.SaveWarehouseOperation(&warehouse.Operation{
		ID:         "wh-1",
		Type:       warehouse.TypeReceipt,
		Payload:    []byte(`{"number":"ПР-001"}`),
		UserID:     7,
		SyncStatus: "pending",
		CreatedAt:  time.Now(),
	}))
	require.NoError(t, s.SaveTransportOperation(&transport.Operation{
		ID:         "tms-1",
		Type:       transport.TypeDelivery,
		Payload:    []byte(`{"route_id":3}`),
		UserID:     7,
		SyncStatus: "pending",
		CreatedAt:  time.Now(),
	}))

	whOps, err := s.PendingWarehouseOperations(7)
	require.NoError(t, err)
	require.Len(t, whOps, 1)
	assert.Equal(t, warehouse.TypeReceipt, whOps[0].Type)

	// Чужие операции не видны
	whOps, err = s.PendingWarehouseOperations(99)
	require.NoError(t, err)
	assert.Empty(t, whOps)

	// Ошибка отправки фиксируется на записи
	require.NoError(t, s.UpdateDomainSyncStatus(sync.DomainWarehouse, "wh-1", "failed", "timeout"))
	whOps, err = s.PendingWarehouseOperations(7)
	require.NoError(t, err)
	require.Len(t, whOps, 1, "Неудачная операция остается видимой для повтора")
	assert.Equal(t, "failed", whOps[0].SyncStatus)
	assert.Equal(t, "timeout", whOps[0].LastError)

	// Успешная отправка удаляет запись
	require.NoError(t, s.UpdateDomainSyncStatus(sync.DomainTransport, "tms-1", "synced", ""))
	tmsOps, err := s.PendingTransportOperations(7)
	require.NoError(t, err)
	assert.Empty(t, tmsOps)

	err = s.UpdateDomainSyncStatus(sync.DomainTransport, "tms-1", "synced", "")
	assert.ErrorIs(t, err, operation.ErrNotFound)
}

func testCache(t *testing.T, s Storage) {
	entry, err := s.GetCache(cache.KeyProducts)
	require.NoError(t, err)
	assert.Nil(t, entry, "Отсутствующий ключ — nil без ошибки")

	require.NoError(t, s.SetCache(cache.KeyProducts, []byte(`[{"id":1}]`), "reference", time.Hour))

	entry, err = s.GetCache(cache.KeyProducts)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.JSONEq(t, `[{"id":1}]`, string(entry.Data))

	// Повторная запись обновляет данные
	require.NoError(t, s.SetCache(cache.KeyProducts, []byte(`[{"id":2}]`), "reference", time.Hour))
	entry, err = s.GetCache(cache.KeyProducts)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.JSONEq(t, `[{"id":2}]`, string(entry.Data))

	// Просроченная запись не видна и вычищается
	require.NoError(t, s.SetCache(cache.KeyVehicles, []byte(`[]`), "reference", -time.Minute))
	entry, err = s.GetCache(cache.KeyVehicles)
	require.NoError(t, err)
	assert.Nil(t, entry, "Просроченная запись не должна возвращаться")

	require.NoError(t, s.ClearExpiredCache())
	entry, err = s.GetCache(cache.KeyProducts)
	require.NoError(t, err)
	assert.NotNil(t, entry, "Живая запись переживает чистку")
}

func testBookkeeping(t *testing.T, s Storage) {
	require.NoError(t, s.UpdateSyncBookkeeping(sync.DomainQueue, "error", "timeout"))
	require.NoError(t, s.UpdateSyncBookkeeping(sync.DomainQueue, "error", "timeout"))

	records, err := s.SyncBookkeeping()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ErrorCount, "Ошибки подряд должны накапливаться")

	// Успех сбрасывает счетчик
	require.NoError(t, s.UpdateSyncBookkeeping(sync.DomainQueue, "ok", ""))
	records, err = s.SyncBookkeeping()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].ErrorCount)
	assert.False(t, records[0].LastSync.IsZero())
}

func testClearCascade(t *testing.T, s Storage) {
	require.NoError(t, s.SaveUserSession(&session.UserSession{
		UserID: 7, Email: "ivanov@example.com", Token: "t", LastLogin: time.Now(),
	}))
	require.NoError(t, s.AddPendingOperation(&operation.PendingOperation{
		ID: "op-1", Kind: operation.KindCreate, Resource: "wms/receipts",
		Payload: []byte(`{}`), UserID: 7, Status: operation.StatusPending, CreatedAt: time.Now(),
	}))
	require.NoError(t, s.SaveWarehouseOperation(&warehouse.Operation{
		ID: "wh-1", Type: warehouse.TypeReceipt, Payload: []byte(`{}`),
		UserID: 7, SyncStatus: "pending", CreatedAt: time.Now(),
	}))
	require.NoError(t, s.SetCache(cache.KeyProducts, []byte(`[]`), "reference", time.Hour))

	require.NoError(t, s.ClearUserSession())

	_, err := s.LastUserSession()
	assert.ErrorIs(t, err, session.ErrNotFound)

	count, err := s.CountPendingOperations()
	require.NoError(t, err)
	assert.Zero(t, count, "Очередь должна быть очищена вместе с сессией")

	whOps, err := s.PendingWarehouseOperations(7)
	require.NoError(t, err)
	assert.Empty(t, whOps)

	entry, err := s.GetCache(cache.KeyProducts)
	require.NoError(t, err)
	assert.Nil(t, entry, "Кеш справочников должен быть очищен")
}
