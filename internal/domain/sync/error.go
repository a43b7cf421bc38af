package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkUnavailable возвращается ручным запуском синхронизации,
	// когда устройство офлайн. Немедленно, без постановки в очередь.
	ErrNetworkUnavailable = errors.New("нет соединения с сервером")

	// ErrSyncInProgress означает, что цикл синхронизации уже выполняется.
	ErrSyncInProgress = errors.New("синхронизация уже выполняется")

	// ErrNoSession означает, что на устройстве нет активной сессии.
	ErrNoSession = errors.New("нет активной сессии пользователя")
)

// DispatchError — ошибка отправки одной записи на сервер. Помечает
// запись как failed, но не прерывает обход очереди.
type DispatchError struct {
	RecordID string
	Domain   Domain
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("ошибка отправки записи %s (%s): %v", e.RecordID, e.Domain, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// CycleError — непредвиденная ошибка, вышедшая за пределы цикла.
// Управляет счетчиком экспоненциальных повторов.
type CycleError struct {
	Phase string
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("ошибка цикла синхронизации на фазе %q: %v", e.Phase, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}
