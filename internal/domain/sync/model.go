package sync

import (
	"fmt"
	"time"
)

// Domain — область синхронизации, по которой ведется учет.
type Domain string

const (
	DomainQueue     Domain = "queue"
	DomainWarehouse Domain = "warehouse"
	DomainTransport Domain = "tms"
	DomainCache     Domain = "cache"
)

// Validate проверяет, что область синхронизации известна.
func (d Domain) Validate() error {
	switch d {
	case DomainQueue, DomainWarehouse, DomainTransport, DomainCache:
		return nil
	}
	return fmt.Errorf("неизвестная область синхронизации: %s", d)
}

// String возвращает строковое представление области.
func (d Domain) String() string {
	return string(d)
}

// StatusRecord — учетная запись по одной области синхронизации:
// время последнего успешного прохода и счетчик подряд идущих ошибок.
type StatusRecord struct {
	Domain     Domain    `json:"domain"`
	LastSync   time.Time `json:"last_sync"`
	Status     string    `json:"status"`
	ErrorCount int       `json:"error_count"`
	LastError  string    `json:"last_error,omitempty"`
}

// Status — снимок состояния движка синхронизации для UI.
// Только чтение; при недоступности хранилища поля деградируют
// к безопасным значениям по умолчанию.
type Status struct {
	IsOnline          bool      `json:"is_online"`
	SyncInProgress    bool      `json:"sync_in_progress"`
	PendingOperations int       `json:"pending_operations"`
	HasUserSession    bool      `json:"has_user_session"`
	LastSync          time.Time `json:"last_sync"`
}

// RecordError — ошибка отправки одной записи. Изолирована: не
// прерывает ни свою фазу, ни последующие.
type RecordError struct {
	RecordID  string    `json:"record_id"`
	Domain    Domain    `json:"domain"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Result — итог одного цикла синхронизации.
type Result struct {
	Success    bool          `json:"success"`
	Dispatched int           `json:"dispatched"`
	Failed     int           `json:"failed"`
	Refreshed  int           `json:"refreshed"`
	Errors     []RecordError `json:"errors"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}
