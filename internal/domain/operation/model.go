package operation

import (
	"encoding/json"
	"time"
)

// PendingOperation — единица отложенной работы в общей очереди.
// Создается при любой мутации, выполненной офлайн, и хранится
// до успешной отправки на сервер.
type PendingOperation struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Resource   string          `json:"resource"`
	Payload    json.RawMessage `json:"payload"`
	UserID     int             `json:"user_id"`
	Status     Status          `json:"status"`
	RetryCount int             `json:"retry_count"`
	LastError  string          `json:"last_error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
