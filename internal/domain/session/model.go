package session

import (
	"time"
)

// UserSession — последняя аутентифицированная сессия, закешированная
// на устройстве. Активной может быть не более одной сессии; старые
// деактивируются при сохранении новой.
type UserSession struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	LastLogin time.Time `json:"last_login"`
	Active    bool      `json:"active"`
}
