package client

import (
	"encoding/json"
	"fmt"
	"sort"
	gosync "sync"
	"time"

	"logisync/internal/domain/cache"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/session"
	"logisync/internal/domain/sync"
	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
)

// Storage — интерфейс локального хранилища. Владеет всеми
// персистентными данными; движок синхронизации читает и изменяет их
// только через этот интерфейс.
type Storage interface {
	SaveUserSession(sess *session.UserSession) error
	LastUserSession() (*session.UserSession, error)
	ClearUserSession() error

	AddPendingOperation(op *operation.PendingOperation) error
	PendingOperations() ([]*operation.PendingOperation, error)
	UpdateOperationStatus(id string, status operation.Status, errMsg string) error
	CountPendingOperations() (int, error)

	SaveWarehouseOperation(op *warehouse.Operation) error
	PendingWarehouseOperations(userID int) ([]*warehouse.Operation, error)
	SaveTransportOperation(op *transport.Operation) error
	PendingTransportOperations(userID int) ([]*transport.Operation, error)
	UpdateDomainSyncStatus(domain sync.Domain, id string, status string, errMsg string) error

	SetCache(key cache.Key, data json.RawMessage, typ string, ttl time.Duration) error
	GetCache(key cache.Key) (*cache.Entry, error)
	ClearExpiredCache() error

	UpdateSyncBookkeeping(domain sync.Domain, status string, errMsg string) error
	SyncBookkeeping() ([]*sync.StatusRecord, error)

	Close() error
}

// StorageError — ошибка ввода-вывода локального хранилища. Фатальна
// для вызванной операции, но не для процесса: вызывающий код
// повторяет операцию на следующем цикле.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// MemoryStorage - временное in-memory хранилище. Используется, когда
// SQLite не удалось открыть: данные не переживают перезапуск, но
// приложение остается работоспособным.
type MemoryStorage struct {
	mu          gosync.RWMutex
	sessions    []*session.UserSession
	pending     map[string]*operation.PendingOperation
	warehouse   map[string]*warehouse.Operation
	transport   map[string]*transport.Operation
	cache       map[cache.Key]*cache.Entry
	bookkeeping map[sync.Domain]*sync.StatusRecord
	nextID      int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		pending:     make(map[string]*operation.PendingOperation),
		warehouse:   make(map[string]*warehouse.Operation),
		transport:   make(map[string]*transport.Operation),
		cache:       make(map[cache.Key]*cache.Entry),
		bookkeeping: make(map[sync.Domain]*sync.StatusRecord),
	}
}

func (m *MemoryStorage) SaveUserSession(sess *session.UserSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		s.Active = false
	}

	m.nextID++
	stored := *sess
	stored.ID = m.nextID
	stored.Active = true
	m.sessions = append(m.sessions, &stored)
	return nil
}

func (m *MemoryStorage) LastUserSession() (*session.UserSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sessions) - 1; i >= 0; i-- {
		if m.sessions[i].Active {
			copied := *m.sessions[i]
			return &copied, nil
		}
	}
	return nil, session.ErrNotFound
}

func (m *MemoryStorage) ClearUserSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		s.Active = false
	}
	m.pending = make(map[string]*operation.PendingOperation)
	m.warehouse = make(map[string]*warehouse.Operation)
	m.transport = make(map[string]*transport.Operation)
	m.cache = make(map[cache.Key]*cache.Entry)
	return nil
}

func (m *MemoryStorage) AddPendingOperation(op *operation.PendingOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *op
	m.pending[op.ID] = &stored
	return nil
}

func (m *MemoryStorage) PendingOperations() ([]*operation.PendingOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]*operation.PendingOperation, 0, len(m.pending))
	for _, op := range m.pending {
		if op.Status == operation.StatusDead {
			continue
		}
		copied := *op
		ops = append(ops, &copied)
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].CreatedAt.Before(ops[j].CreatedAt)
	})
	return ops, nil
}

func (m *MemoryStorage) UpdateOperationStatus(id string, status operation.Status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, exists := m.pending[id]
	if !exists {
		return operation.ErrNotFound
	}

	if status == operation.StatusCompleted {
		delete(m.pending, id)
		return nil
	}

	op.Status = status
	op.RetryCount++
	op.LastError = errMsg
	return nil
}

func (m *MemoryStorage) CountPendingOperations() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, op := range m.pending {
		if op.Status != operation.StatusDead {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStorage) SaveWarehouseOperation(op *warehouse.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *op
	m.warehouse[op.ID] = &stored
	return nil
}

func (m *MemoryStorage) PendingWarehouseOperations(userID int) ([]*warehouse.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]*warehouse.Operation, 0)
	for _, op := range m.warehouse {
		if op.UserID == userID {
			copied := *op
			ops = append(ops, &copied)
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].CreatedAt.Before(ops[j].CreatedAt)
	})
	return ops, nil
}

func (m *MemoryStorage) SaveTransportOperation(op *transport.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *op
	m.transport[op.ID] = &stored
	return nil
}

func (m *MemoryStorage) PendingTransportOperations(userID int) ([]*transport.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]*transport.Operation, 0)
	for _, op := range m.transport {
		if op.UserID == userID {
			copied := *op
			ops = append(ops, &copied)
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].CreatedAt.Before(ops[j].CreatedAt)
	})
	return ops, nil
}

func (m *MemoryStorage) UpdateDomainSyncStatus(domain sync.Domain, id string, status string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch domain {
	case sync.DomainWarehouse:
		op, exists := m.warehouse[id]
		if !exists {
			return operation.ErrNotFound
		}
		if status == "synced" {
			delete(m.warehouse, id)
			return nil
		}
		op.SyncStatus = status
		op.LastError = errMsg
	case sync.DomainTransport:
		op, exists := m.transport[id]
		if !exists {
			return operation.ErrNotFound
		}
		if status == "synced" {
			delete(m.transport, id)
			return nil
		}
		op.SyncStatus = status
		op.LastError = errMsg
	default:
		return fmt.Errorf("неизвестная область доменных операций: %s", domain)
	}
	return nil
}

func (m *MemoryStorage) SetCache(key cache.Key, data json.RawMessage, typ string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache[key] = &cache.Entry{
		Key:       key,
		Data:      data,
		Type:      typ,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *MemoryStorage) GetCache(key cache.Key) (*cache.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.cache[key]
	if !exists || entry.Expired(time.Now()) {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (m *MemoryStorage) ClearExpiredCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, entry := range m.cache {
		if entry.Expired(now) {
			delete(m.cache, key)
		}
	}
	return nil
}

func (m *MemoryStorage) UpdateSyncBookkeeping(domain sync.Domain, status string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.bookkeeping[domain]
	if !exists {
		rec = &sync.StatusRecord{Domain: domain}
		m.bookkeeping[domain] = rec
	}

	rec.Status = status
	rec.LastError = errMsg
	if status == "ok" {
		rec.LastSync = time.Now()
		rec.ErrorCount = 0
	} else {
		rec.ErrorCount++
	}
	return nil
}

func (m *MemoryStorage) SyncBookkeeping() ([]*sync.StatusRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*sync.StatusRecord, 0, len(m.bookkeeping))
	for _, rec := range m.bookkeeping {
		copied := *rec
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Domain < records[j].Domain
	})
	return records, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
