package client

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"logisync/internal/domain/cache"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/session"
	"logisync/internal/domain/sync"
	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
	"logisync/internal/infrastructure/migration"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, storageErr("open", fmt.Errorf("ошибка открытия базы данных: %w", err))
	}

	storage := &SQLiteStorage{db: db}

	// Накатываем схему. Повторный вызов безопасен.
	mg := migration.NewMigration(db, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		db.Close()
		return nil, storageErr("migrate", fmt.Errorf("ошибка инициализации схемы: %w", err))
	}

	return storage, nil
}

// ==================== Сессия пользователя ====================

func (s *SQLiteStorage) SaveUserSession(sess *session.UserSession) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("save_session", err)
	}
	defer tx.Rollback()

	// Активной остается только новая сессия
	if _, err := tx.Exec("UPDATE user_sessions SET active = 0 WHERE active = 1"); err != nil {
		return storageErr("save_session", err)
	}

	_, err = tx.Exec(`
		INSERT INTO user_sessions (user_id, email, token, last_login, active)
		VALUES (?, ?, ?, ?, 1)
	`, sess.UserID, sess.Email, sess.Token, sess.LastLogin.Format(time.RFC3339))
	if err != nil {
		return storageErr("save_session", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("save_session", err)
	}
	return nil
}

func (s *SQLiteStorage) LastUserSession() (*session.UserSession, error) {
	var sess session.UserSession
	var lastLogin string

	err := s.db.QueryRow(`
		SELECT id, user_id, email, token, last_login, active
		FROM user_sessions
		WHERE active = 1
		ORDER BY last_login DESC
		LIMIT 1
	`).Scan(&sess.ID, &sess.UserID, &sess.Email, &sess.Token, &lastLogin, &sess.Active)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get_session", err)
	}

	sess.LastLogin, _ = time.Parse(time.RFC3339, lastLogin)
	return &sess, nil
}

// ClearUserSession деактивирует сессию и каскадно удаляет очередь,
// доменные операции и кеш. Необратимо; используется только при выходе.
func (s *SQLiteStorage) ClearUserSession() error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("clear_session", err)
	}
	defer tx.Rollback()

	statements := []string{
		"UPDATE user_sessions SET active = 0",
		"DELETE FROM pending_operations",
		"DELETE FROM warehouse_operations",
		"DELETE FROM transport_operations",
		"DELETE FROM cache_entries",
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return storageErr("clear_session", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("clear_session", err)
	}
	return nil
}

// ==================== Общая очередь операций ====================

func (s *SQLiteStorage) AddPendingOperation(op *operation.PendingOperation) error {
	_, err := s.db.Exec(`
		INSERT INTO pending_operations (id, kind, resource, payload, user_id, status, retry_count, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, '', ?)
	`, op.ID, op.Kind.String(), op.Resource, string(op.Payload), op.UserID,
		operation.StatusPending.String(), op.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return storageErr("add_operation", err)
	}
	return nil
}

// PendingOperations возвращает операции, видимые циклу синхронизации:
// pending и failed (failed повторяются), dead исключаются. Порядок —
// по времени создания, старые первыми: поздние операции над тем же
// ресурсом могут зависеть от успеха ранних.
func (s *SQLiteStorage) PendingOperations() ([]*operation.PendingOperation, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, resource, payload, user_id, status, retry_count, last_error, created_at
		FROM pending_operations
		WHERE status != ?
		ORDER BY created_at ASC
	`, operation.StatusDead.String())
	if err != nil {
		return nil, storageErr("get_operations", err)
	}
	defer rows.Close()

	var ops []*operation.PendingOperation
	for rows.Next() {
		op, err := scanPendingOperation(rows)
		if err != nil {
			return nil, storageErr("get_operations", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_operations", err)
	}

	return ops, nil
}

func scanPendingOperation(rows *sql.Rows) (*operation.PendingOperation, error) {
	var op operation.PendingOperation
	var kind, status, payload, createdAt string

	if err := rows.Scan(&op.ID, &kind, &op.Resource, &payload, &op.UserID,
		&status, &op.RetryCount, &op.LastError, &createdAt); err != nil {
		return nil, fmt.Errorf("ошибка сканирования операции: %w", err)
	}

	op.Kind = operation.Kind(kind)
	op.Status = operation.Status(status)
	op.Payload = json.RawMessage(payload)
	op.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &op, nil
}

// UpdateOperationStatus переводит операцию в новое состояние.
// completed означает удаление строки; failed и dead увеличивают
// retry_count и сохраняют текст ошибки.
func (s *SQLiteStorage) UpdateOperationStatus(id string, status operation.Status, errMsg string) error {
	if status == operation.StatusCompleted {
		result, err := s.db.Exec("DELETE FROM pending_operations WHERE id = ?", id)
		if err != nil {
			return storageErr("update_operation", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return operation.ErrNotFound
		}
		return nil
	}

	result, err := s.db.Exec(`
		UPDATE pending_operations
		SET status = ?, last_error = ?, retry_count = retry_count + 1
		WHERE id = ?
	`, status.String(), errMsg, id)
	if err != nil {
		return storageErr("update_operation", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return operation.ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) CountPendingOperations() (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pending_operations WHERE status != ?
	`, operation.StatusDead.String()).Scan(&count)
	if err != nil {
		return 0, storageErr("count_operations", err)
	}
	return count, nil
}

// ==================== Доменные операции ====================

func (s *SQLiteStorage) SaveWarehouseOperation(op *warehouse.Operation) error {
	_, err := s.db.Exec(`
		INSERT INTO warehouse_operations (id, operation_type, payload, user_id, sync_status, last_error, created_at)
		VALUES (?, ?, ?, ?, 'pending', '', ?)
	`, op.ID, op.Type.String(), string(op.Payload), op.UserID, op.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return storageErr("save_warehouse_operation", err)
	}
	return nil
}

func (s *SQLiteStorage) PendingWarehouseOperations(userID int) ([]*warehouse.Operation, error) {
	rows, err := s.db.Query(`
		SELECT id, operation_type, payload, user_id, sync_status, last_error, created_at
		FROM warehouse_operations
		WHERE user_id = ? AND sync_status IN ('pending', 'failed')
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, storageErr("get_warehouse_operations", err)
	}
	defer rows.Close()

	var ops []*warehouse.Operation
	for rows.Next() {
		var op warehouse.Operation
		var opType, payload, createdAt string

		if err := rows.Scan(&op.ID, &opType, &payload, &op.UserID,
			&op.SyncStatus, &op.LastError, &createdAt); err != nil {
			return nil, storageErr("get_warehouse_operations", err)
		}

		op.Type = warehouse.OperationType(opType)
		op.Payload = json.RawMessage(payload)
		op.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_warehouse_operations", err)
	}

	return ops, nil
}

func (s *SQLiteStorage) SaveTransportOperation(op *transport.Operation) error {
	_, err := s.db.Exec(`
		INSERT INTO transport_operations (id, operation_type, payload, user_id, sync_status, last_error, created_at)
		VALUES (?, ?, ?, ?, 'pending', '', ?)
	`, op.ID, op.Type.String(), string(op.Payload), op.UserID, op.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return storageErr("save_transport_operation", err)
	}
	return nil
}

func (s *SQLiteStorage) PendingTransportOperations(userID int) ([]*transport.Operation, error) {
	rows, err := s.db.Query(`
		SELECT id, operation_type, payload, user_id, sync_status, last_error, created_at
		FROM transport_operations
		WHERE user_id = ? AND sync_status IN ('pending', 'failed')
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, storageErr("get_transport_operations", err)
	}
	defer rows.Close()

	var ops []*transport.Operation
	for rows.Next() {
		var op transport.Operation
		var opType, payload, createdAt string

		if err := rows.Scan(&op.ID, &opType, &payload, &op.UserID,
			&op.SyncStatus, &op.LastError, &createdAt); err != nil {
			return nil, storageErr("get_transport_operations", err)
		}

		op.Type = transport.OperationType(opType)
		op.Payload = json.RawMessage(payload)
		op.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_transport_operations", err)
	}

	return ops, nil
}

// UpdateDomainSyncStatus обновляет статус доменной операции.
// synced означает удаление строки, иначе статус и ошибка
// обновляются на месте.
func (s *SQLiteStorage) UpdateDomainSyncStatus(domain sync.Domain, id string, status string, errMsg string) error {
	var table string
	switch domain {
	case sync.DomainWarehouse:
		table = "warehouse_operations"
	case sync.DomainTransport:
		table = "transport_operations"
	default:
		return storageErr("update_domain_status", fmt.Errorf("неизвестная область доменных операций: %s", domain))
	}

	if status == "synced" {
		result, err := s.db.Exec("DELETE FROM "+table+" WHERE id = ?", id)
		if err != nil {
			return storageErr("update_domain_status", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return operation.ErrNotFound
		}
		return nil
	}

	result, err := s.db.Exec(
		"UPDATE "+table+" SET sync_status = ?, last_error = ? WHERE id = ?",
		status, errMsg, id)
	if err != nil {
		return storageErr("update_domain_status", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return operation.ErrNotFound
	}
	return nil
}

// ==================== Кеш справочников ====================

func (s *SQLiteStorage) SetCache(key cache.Key, data json.RawMessage, typ string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	_, err := s.db.Exec(`
		INSERT INTO cache_entries (key, data, type, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, type = excluded.type, expires_at = excluded.expires_at
	`, key.String(), string(data), typ, expiresAt.Format(time.RFC3339))
	if err != nil {
		return storageErr("set_cache", err)
	}
	return nil
}

// GetCache возвращает запись кеша, если срок ее жизни не истек.
// Для отсутствующей или просроченной записи возвращается nil без ошибки.
func (s *SQLiteStorage) GetCache(key cache.Key) (*cache.Entry, error) {
	var entry cache.Entry
	var keyStr, data, expiresAt string

	err := s.db.QueryRow(`
		SELECT key, data, type, expires_at FROM cache_entries WHERE key = ?
	`, key.String()).Scan(&keyStr, &data, &entry.Type, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get_cache", err)
	}

	entry.Key = cache.Key(keyStr)
	entry.Data = json.RawMessage(data)
	entry.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)

	if entry.Expired(time.Now()) {
		return nil, nil
	}
	return &entry, nil
}

func (s *SQLiteStorage) ClearExpiredCache() error {
	_, err := s.db.Exec(`
		DELETE FROM cache_entries WHERE expires_at < ?
	`, time.Now().Format(time.RFC3339))
	if err != nil {
		return storageErr("clear_expired_cache", err)
	}
	return nil
}

// ==================== Учет синхронизации ====================

func (s *SQLiteStorage) UpdateSyncBookkeeping(domain sync.Domain, status string, errMsg string) error {
	var err error
	if status == "ok" {
		_, err = s.db.Exec(`
			INSERT INTO sync_status (sync_type, last_sync, status, error_count, last_error)
			VALUES (?, ?, ?, 0, '')
			ON CONFLICT(sync_type) DO UPDATE SET last_sync = excluded.last_sync, status = excluded.status, error_count = 0, last_error = ''
		`, domain.String(), time.Now().Format(time.RFC3339), status)
	} else {
		_, err = s.db.Exec(`
			INSERT INTO sync_status (sync_type, last_sync, status, error_count, last_error)
			VALUES (?, NULL, ?, 1, ?)
			ON CONFLICT(sync_type) DO UPDATE SET status = excluded.status, error_count = error_count + 1, last_error = excluded.last_error
		`, domain.String(), status, errMsg)
	}
	if err != nil {
		return storageErr("update_bookkeeping", err)
	}
	return nil
}

func (s *SQLiteStorage) SyncBookkeeping() ([]*sync.StatusRecord, error) {
	rows, err := s.db.Query(`
		SELECT sync_type, last_sync, status, error_count, last_error
		FROM sync_status ORDER BY sync_type
	`)
	if err != nil {
		return nil, storageErr("get_bookkeeping", err)
	}
	defer rows.Close()

	var records []*sync.StatusRecord
	for rows.Next() {
		var rec sync.StatusRecord
		var domain string
		var lastSync sql.NullString

		if err := rows.Scan(&domain, &lastSync, &rec.Status, &rec.ErrorCount, &rec.LastError); err != nil {
			return nil, storageErr("get_bookkeeping", err)
		}

		rec.Domain = sync.Domain(domain)
		if lastSync.Valid {
			rec.LastSync, _ = time.Parse(time.RFC3339, lastSync.String)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_bookkeeping", err)
	}

	return records, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
