package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Key — ключ справочника, зеркалируемого с сервера для офлайн-чтения.
type Key string

const (
	KeyWarehouses Key = "warehouses"
	KeyProducts   Key = "products"
	KeyCustomers  Key = "customers"
	KeyVehicles   Key = "vehicles"
	KeyRoutes     Key = "routes"
)

// RefreshKeys — фиксированный список справочников, которые движок
// синхронизации обновляет в конце каждого цикла.
var RefreshKeys = []Key{KeyWarehouses, KeyProducts, KeyCustomers, KeyVehicles, KeyRoutes}

// DefaultTTL — время жизни справочника в локальном кеше.
const DefaultTTL = 120 * time.Minute

// Validate проверяет, что ключ справочника известен.
func (k Key) Validate() error {
	switch k {
	case KeyWarehouses, KeyProducts, KeyCustomers, KeyVehicles, KeyRoutes:
		return nil
	}
	return fmt.Errorf("неизвестный ключ кеша: %s", k)
}

// String возвращает строковое представление ключа.
func (k Key) String() string {
	return string(k)
}

// Endpoint возвращает путь серверного эндпоинта справочника.
func (k Key) Endpoint() string {
	return "/api/cache/" + string(k)
}

// Entry — запись локального кеша справочных данных.
// Кеш только читается офлайн, на сервер никогда не отправляется.
type Entry struct {
	Key       Key             `json:"key"`
	Data      json.RawMessage `json:"data"`
	Type      string          `json:"type"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired сообщает, истек ли срок жизни записи на момент now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
