package operation

import (
	"fmt"
	"net/http"
)

// Kind — вид отложенной операции над ресурсом.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Validate проверяет, что вид операции известен.
func (k Kind) Validate() error {
	switch k {
	case KindCreate, KindUpdate, KindDelete:
		return nil
	}
	return fmt.Errorf("неизвестный вид операции: %s", k)
}

// String возвращает строковое представление вида операции.
func (k Kind) String() string {
	return string(k)
}

// Method возвращает HTTP-метод для отправки операции на сервер.
func (k Kind) Method() string {
	switch k {
	case KindCreate:
		return http.MethodPost
	case KindUpdate:
		return http.MethodPut
	case KindDelete:
		return http.MethodDelete
	default:
		return ""
	}
}

// DisplayName возвращает человекочитаемое название вида операции.
func (k Kind) DisplayName() string {
	switch k {
	case KindCreate:
		return "Создание"
	case KindUpdate:
		return "Обновление"
	case KindDelete:
		return "Удаление"
	default:
		return "Неизвестная операция"
	}
}

// Status — статус отложенной операции в локальной очереди.
// Успешно отправленная операция не архивируется, а удаляется,
// поэтому статуса "completed" в хранилище не бывает.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
	StatusDead      Status = "dead"
)

// Validate проверяет, что статус известен.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusFailed, StatusCompleted, StatusDead:
		return nil
	}
	return fmt.Errorf("неизвестный статус операции: %s", s)
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}
